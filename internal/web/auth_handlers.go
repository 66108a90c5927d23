package web

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/evcraddock/bienesraices/internal/auth"
	"github.com/evcraddock/bienesraices/internal/form"
)

type registerData struct {
	Name   string
	Email  string
	Errors *form.Errors
}

type loginData struct {
	Email  string
	Errors *form.Errors
}

type noticeData struct {
	Message string
	Error   bool
	Link    string
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "registro.html", "Crear Cuenta", registerData{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	f := auth.RegisterFormFromValues(r.PostFormValue)
	rerender := func(fe *form.Errors) {
		s.render(w, r, http.StatusUnprocessableEntity, "registro.html", "Crear Cuenta", registerData{
			Name:   f.Name,
			Email:  f.Email,
			Errors: fe,
		})
	}

	if err := f.Validate(); err != nil {
		if fe, ok := form.AsErrors(err); ok {
			rerender(fe)
			return
		}
		s.serverError(w, r, err)
		return
	}

	u, err := s.users.Register(r.Context(), f.Name, f.Email, f.Password)
	if errors.Is(err, auth.ErrEmailTaken) {
		rerender(form.NewErrors("Email", "Ya existe un usuario con esa dirección de correo"))
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	if err := s.mailer.SendConfirmation(u.Name, u.Email, u.Token); err != nil {
		slog.Error("sending confirmation email", "user_id", u.ID, "err", err)
	}

	s.render(w, r, http.StatusOK, "aviso.html", "Cuenta Creada Correctamente", noticeData{
		Message: "Hemos creado tu cuenta. Te mandaremos un correo con instrucciones para activar tu cuenta.",
	})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	_, err := s.users.Confirm(r.Context(), mux.Vars(r)["token"])
	if errors.Is(err, auth.ErrInvalidToken) {
		s.render(w, r, http.StatusBadRequest, "aviso.html", "Error al confirmar tu cuenta", noticeData{
			Message: "Error al confirmar tu cuenta. Por favor intenta de nuevo.",
			Error:   true,
		})
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "aviso.html", "Cuenta Confirmada", noticeData{
		Message: "Tu cuenta ha sido confirmada correctamente.",
		Link:    PathLogin,
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", "Iniciar Sesión", loginData{})
}

// handleLogin checks the password form. Attempts are limited per client IP.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(r.Context(), clientIP(r)) {
		s.metrics.RateLimited(PathLogin)
		s.render(w, r, http.StatusTooManyRequests, "login.html", "Iniciar Sesión", loginData{
			Errors: form.NewErrors("", "Demasiados intentos, espera un minuto e intenta de nuevo"),
		})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	f := auth.LoginFormFromValues(r.PostFormValue)
	rerender := func(fe *form.Errors) {
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", "Iniciar Sesión", loginData{Email: f.Email, Errors: fe})
	}

	if err := f.Validate(); err != nil {
		if fe, ok := form.AsErrors(err); ok {
			rerender(fe)
			return
		}
		s.serverError(w, r, err)
		return
	}

	u, err := s.users.Authenticate(r.Context(), f.Email, f.Password)
	if err != nil {
		if msg, ok := auth.LoginMessage(err); ok {
			rerender(form.NewErrors("", msg))
			return
		}
		s.serverError(w, r, err)
		return
	}

	if err := s.sessions.Create(w, u); err != nil {
		s.serverError(w, r, err)
		return
	}
	slog.Info("login success", "user_id", u.ID, "method", "password")
	http.Redirect(w, r, PathAdmin, http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Destroy(w)
	http.Redirect(w, r, PathLogin, http.StatusFound)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "olvide-password.html", "Recuperar Contraseña", nil)
}

type passkeyItem struct {
	ID   string
	Name string
}

type accountData struct {
	Passkeys []passkeyItem
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	stored, err := s.passkeys.passkeys.ListByUser(r.Context(), user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	items := make([]passkeyItem, len(stored))
	for i, sc := range stored {
		items[i] = passkeyItem{ID: sc.ID, Name: sc.Name}
	}
	s.render(w, r, http.StatusOK, "cuenta.html", "Mi Cuenta", accountData{Passkeys: items})
}

func (s *Server) handleDeletePasskey(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	user := auth.UserFromContext(r.Context())
	err := s.passkeys.passkeys.Delete(r.Context(), r.PostFormValue("id"), user.ID)
	if err != nil && !errors.Is(err, auth.ErrCredentialNotFound) {
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, PathAccount, http.StatusFound)
}

// clientIP returns the remote host without its port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
