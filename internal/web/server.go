// Package web provides the HTTP server, routes and page handlers for the
// bienesraices site.
package web

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/evcraddock/bienesraices/internal/auth"
	"github.com/evcraddock/bienesraices/internal/email"
	"github.com/evcraddock/bienesraices/internal/logging"
	"github.com/evcraddock/bienesraices/internal/lookup"
	"github.com/evcraddock/bienesraices/internal/message"
	"github.com/evcraddock/bienesraices/internal/property"
	"github.com/evcraddock/bienesraices/internal/upload"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Mailer delivers account confirmation emails.
type Mailer interface {
	SendConfirmation(name, address, token string) error
}

// Options configures a Server.
type Options struct {
	BaseURL        string
	JWTSecret      string
	SessionTTL     time.Duration
	AllowedOrigins []string
	Images         *upload.Store
	Mailer         Mailer       // defaults to an email.Mailer without SMTP
	Limiter        auth.Limiter // defaults to an in-memory login limiter
	Metrics        *logging.Metrics
}

// Server is the web HTTP server.
type Server struct {
	props     *property.Service
	refs      *lookup.Repository
	messages  *message.Repository
	users     *auth.UserStore
	sessions  *auth.Sessions
	mw        *auth.Middleware
	passkeys  *passkeyHandlers
	limiter   auth.Limiter
	mailer    Mailer
	images    *upload.Store
	metrics   *logging.Metrics
	templates map[string]*template.Template
	handler   http.Handler
}

// NewServer wires repositories, sessions and routes over db.
func NewServer(db *sql.DB, opts Options) (*Server, error) {
	if opts.Images == nil {
		return nil, errors.New("image store is required")
	}
	if opts.JWTSecret == "" {
		return nil, errors.New("JWT secret is required")
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.Mailer == nil {
		opts.Mailer = email.NewMailer(email.SMTPConfig{}, opts.BaseURL)
	}
	if opts.Limiter == nil {
		opts.Limiter = auth.NewLoginLimiter("", "", 0)
	}
	if opts.Metrics == nil {
		opts.Metrics = logging.NewMetrics()
	}

	tmpls, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	users := auth.NewUserStore(db)
	sessions := auth.NewSessions(opts.JWTSecret, opts.SessionTTL, strings.HasPrefix(opts.BaseURL, "https://"))
	refs := lookup.NewRepository(db)

	passkeys, err := newPasskeyHandlers(opts.BaseURL, auth.NewPasskeyStore(db), sessions, users)
	if err != nil {
		return nil, fmt.Errorf("configuring passkeys: %w", err)
	}

	s := &Server{
		props:     property.NewService(property.NewRepository(db), refs, opts.Images),
		refs:      refs,
		messages:  message.NewRepository(db),
		users:     users,
		sessions:  sessions,
		mw:        auth.NewMiddleware(sessions, users),
		passkeys:  passkeys,
		limiter:   opts.Limiter,
		mailer:    opts.Mailer,
		images:    opts.Images,
		metrics:   opts.Metrics,
		templates: tmpls,
	}

	router, err := s.routes(opts.AllowedOrigins)
	if err != nil {
		return nil, err
	}
	s.handler = logging.RequestLogger(router)
	return s, nil
}

func (s *Server) routes(origins []string) (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(s.metrics.Middleware)
	r.Use(s.mw.Identify)
	r.NotFoundHandler = s.mw.Identify(http.HandlerFunc(s.handleNotFound))

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", noListing(http.FileServer(http.FS(staticContent)))))
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", noListing(http.FileServer(http.Dir(s.images.Dir())))))

	catalogCORS := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})

	// Public pages.
	r.HandleFunc(PathHealth, s.handleHealth).Methods(http.MethodGet)
	r.Handle(PathMetrics, s.metrics.Handler()).Methods(http.MethodGet)
	r.Handle(PathCatalog, catalogCORS.Handler(http.HandlerFunc(s.handleCatalog))).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc(PathHome, s.handleHome).Methods(http.MethodGet)
	r.HandleFunc(PathCategory, s.handleCategory).Methods(http.MethodGet)
	r.HandleFunc(PathSearch, s.handleSearch).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc(PathNotFound, s.handleNotFound).Methods(http.MethodGet)
	r.HandleFunc(PathDetail, s.handleDetail).Methods(http.MethodGet)
	r.HandleFunc(PathDetail, s.handleSendMessage).Methods(http.MethodPost)

	// Accounts.
	r.HandleFunc(PathRegister, s.handleRegisterPage).Methods(http.MethodGet)
	r.HandleFunc(PathRegister, s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc(PathConfirm, s.handleConfirm).Methods(http.MethodGet)
	r.HandleFunc(PathLogin, s.handleLoginPage).Methods(http.MethodGet)
	r.HandleFunc(PathLogin, s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc(PathLogout, s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc(PathForgot, s.handleForgotPassword).Methods(http.MethodGet)
	r.HandleFunc(PathKeyRegBeg, s.passkeys.handleBeginRegistration).Methods(http.MethodPost)
	r.HandleFunc(PathKeyRegEnd, s.passkeys.handleFinishRegistration).Methods(http.MethodPost)
	r.HandleFunc(PathKeyAuthBeg, s.passkeys.handleBeginLogin).Methods(http.MethodPost)
	r.HandleFunc(PathKeyAuthEnd, s.passkeys.handleFinishLogin).Methods(http.MethodPost)

	// Signed-in pages.
	owner := func(path string, h http.HandlerFunc, methods ...string) {
		r.Handle(path, s.mw.RequireUser(h)).Methods(methods...)
	}
	owner(PathAdmin, s.handleAdmin, http.MethodGet)
	owner(PathCreate, s.handleCreatePage, http.MethodGet)
	owner(PathCreate, s.handleCreate, http.MethodPost)
	owner(PathAttach, s.handleAttachPage, http.MethodGet)
	owner(PathAttach, s.handleAttach, http.MethodPost)
	owner(PathEdit, s.handleEditPage, http.MethodGet)
	owner(PathEdit, s.handleEdit, http.MethodPost)
	owner(PathDelete, s.handleDelete, http.MethodPost)
	owner(PathToggle, s.handleToggle, http.MethodPut)
	owner(PathMessages, s.handleMessages, http.MethodGet)
	owner(PathAccount, s.handleAccount, http.MethodGet)
	owner(PathKeyDelete, s.handleDeletePasskey, http.MethodPost)

	return r, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// noListing hides directory indexes.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var funcMap = template.FuncMap{
	"idstr": func(id int64) string { return strconv.FormatInt(id, 10) },
	"seq": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i + 1
		}
		return out
	},
	"add":  func(a, b int) int { return a + b },
	"sub":  func(a, b int) int { return a - b },
	"date": func(t time.Time) string { return t.Format("02/01/2006") },
}

// parseTemplates builds one template set per page so each page can define
// its own "content" block on top of layout.html.
func parseTemplates() (map[string]*template.Template, error) {
	base, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	out := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		name := strings.TrimPrefix(p, "templates/")
		if name == "layout.html" {
			continue
		}
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, p); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// view is the data every page template receives.
type view struct {
	Title string
	User  *auth.User
	Data  interface{}
}

// render executes a page inside the layout. Output is buffered so a
// template failure still produces a clean error response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data interface{}) {
	t, ok := s.templates[name]
	if !ok {
		slog.Error("unknown template", "name", name)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	var buf strings.Builder
	v := view{Title: title, User: auth.UserFromContext(r.Context()), Data: data}
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		slog.Error("rendering template", "name", name, "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(buf.String())); err != nil {
		slog.Warn("writing response", "err", err)
	}
}

// serverError logs err and renders the generic error page.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	s.render(w, r, http.StatusInternalServerError, "error.html", "Error", nil)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "err", err)
	}
}

// pathID reads the numeric {id} route variable.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
