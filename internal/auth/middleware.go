package auth

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// WithUser returns a context carrying the signed-in user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the signed-in user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(contextKey{}).(*User)
	return u
}

// LoginPath is where unauthenticated requests to protected pages go.
const LoginPath = "/auth/login"

// Middleware resolves session cookies into users.
type Middleware struct {
	sessions *Sessions
	users    *UserStore
}

// NewMiddleware creates session middleware.
func NewMiddleware(sessions *Sessions, users *UserStore) *Middleware {
	return &Middleware{sessions: sessions, users: users}
}

// Identify attaches the signed-in user to the request context when the
// session cookie is valid. Anonymous requests pass through unchanged.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := m.resolve(r); u != nil {
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser redirects requests without a valid session to the login page.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			u = m.resolve(r)
		}
		if u == nil {
			m.sessions.Destroy(w)
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func (m *Middleware) resolve(r *http.Request) *User {
	claims, err := m.sessions.Validate(r)
	if err != nil {
		return nil
	}
	u, err := m.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		slog.Debug("session user lookup failed", "user_id", claims.UserID, "err", err)
		return nil
	}
	return u
}
