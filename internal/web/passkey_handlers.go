package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/evcraddock/bienesraices/internal/auth"
)

// loginCeremonyCookie carries the challenge of an in-flight passkey login.
const loginCeremonyCookie = "_passkey"

// passkeyHandlers holds WebAuthn-related HTTP handlers.
type passkeyHandlers struct {
	wan      *webauthn.WebAuthn
	passkeys *auth.PasskeyStore
	sessions *auth.Sessions
	users    *auth.UserStore

	// In-flight ceremonies. Registrations are keyed by user ID, logins by
	// challenge.
	mu            sync.Mutex
	registrations map[int64]*webauthn.SessionData
	logins        map[string]*webauthn.SessionData
}

func newPasskeyHandlers(baseURL string, passkeys *auth.PasskeyStore, sessions *auth.Sessions, users *auth.UserStore) (*passkeyHandlers, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Bienes Raíces",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{strings.TrimRight(baseURL, "/")},
	})
	if err != nil {
		return nil, err
	}

	return &passkeyHandlers{
		wan:           wan,
		passkeys:      passkeys,
		sessions:      sessions,
		users:         users,
		registrations: make(map[int64]*webauthn.SessionData),
		logins:        make(map[string]*webauthn.SessionData),
	}, nil
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleBeginRegistration starts passkey registration from the account page.
func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	creds, err := h.passkeys.WebAuthnCredentials(r.Context(), user.ID)
	if err != nil {
		slog.Error("loading credentials", "err", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Exclude existing credentials so the same key is not registered twice.
	exclude := make([]protocol.CredentialDescriptor, len(creds))
	for i, c := range creds {
		exclude[i] = c.Descriptor()
	}

	creation, session, err := h.wan.BeginRegistration(auth.NewPasskeyUser(user, creds),
		webauthn.WithExclusions(exclude),
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
	)
	if err != nil {
		slog.Error("beginning registration", "err", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.mu.Lock()
	h.registrations[user.ID] = session
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, creation)
}

// handleFinishRegistration completes passkey registration.
func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.mu.Lock()
	session, ok := h.registrations[user.ID]
	delete(h.registrations, user.ID)
	h.mu.Unlock()

	if !ok {
		jsonError(w, http.StatusBadRequest, "no registration in progress")
		return
	}

	creds, err := h.passkeys.WebAuthnCredentials(r.Context(), user.ID)
	if err != nil {
		slog.Error("loading credentials", "err", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	credential, err := h.wan.FinishRegistration(auth.NewPasskeyUser(user, creds), *session, r)
	if err != nil {
		slog.Warn("finishing registration", "user_id", user.ID, "err", err)
		jsonError(w, http.StatusBadRequest, "registration failed")
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("nombre"))
	if name == "" {
		name = "Passkey"
	}

	if err := h.passkeys.Save(r.Context(), user.ID, name, credential); err != nil {
		slog.Error("saving credential", "err", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("passkey registered", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBeginLogin starts a discoverable passkey login.
func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	assertion, session, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		slog.Error("beginning passkey login", "err", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.mu.Lock()
	h.logins[session.Challenge] = session
	h.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     loginCeremonyCookie,
		Value:    session.Challenge,
		Path:     "/passkey/",
		Expires:  time.Now().Add(5 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, assertion)
}

// handleFinishLogin completes a passkey login and issues the session cookie.
// Only confirmed accounts may sign in.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(loginCeremonyCookie)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "no login in progress")
		return
	}

	h.mu.Lock()
	session, ok := h.logins[cookie.Value]
	delete(h.logins, cookie.Value)
	h.mu.Unlock()

	if !ok {
		jsonError(w, http.StatusBadRequest, "no login in progress")
		return
	}

	var account *auth.User
	handler := func(rawID, userHandle []byte) (webauthn.User, error) {
		id, err := auth.UserIDFromHandle(userHandle)
		if err != nil {
			return nil, protocol.ErrBadRequest.WithDetails("unknown user")
		}
		u, err := h.users.GetByID(r.Context(), id)
		if err != nil {
			return nil, protocol.ErrBadRequest.WithDetails("unknown user")
		}
		creds, err := h.passkeys.WebAuthnCredentials(r.Context(), u.ID)
		if err != nil {
			return nil, err
		}
		account = u
		return auth.NewPasskeyUser(u, creds), nil
	}

	if _, _, err := h.wan.FinishPasskeyLogin(handler, *session, r); err != nil {
		slog.Warn("finishing passkey login", "err", err)
		jsonError(w, http.StatusUnauthorized, "login failed")
		return
	}
	if account == nil {
		jsonError(w, http.StatusUnauthorized, "login failed")
		return
	}
	if !account.Confirmed {
		msg, _ := auth.LoginMessage(auth.ErrNotConfirmed)
		jsonError(w, http.StatusForbidden, msg)
		return
	}

	if err := h.sessions.Create(w, account); err != nil {
		slog.Error("creating session", "err", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("login success", "user_id", account.ID, "method", "passkey")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "redirect": PathAdmin})
}
