package web

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/evcraddock/bienesraices/internal/auth"
	"github.com/evcraddock/bienesraices/internal/db"
	"github.com/evcraddock/bienesraices/internal/property"
	"github.com/evcraddock/bienesraices/internal/upload"
)

const testSecret = "test-secret"

type sentMail struct {
	name, address, token string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) SendConfirmation(name, address, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{name, address, token})
	return nil
}

type testEnv struct {
	srv    *Server
	db     *sql.DB
	images *upload.Store
	mailer *fakeMailer
	props  *property.Repository
	users  *auth.UserStore
}

func newTestEnv(t *testing.T, opts ...func(*Options)) *testEnv {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("closing db: %v", err)
		}
	})
	if err := db.SeedReference(context.Background(), d); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	images, err := upload.NewStore(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("creating image store: %v", err)
	}

	mailer := &fakeMailer{}
	o := Options{
		BaseURL:        "http://localhost:3000",
		JWTSecret:      testSecret,
		SessionTTL:     time.Hour,
		AllowedOrigins: []string{"*"},
		Images:         images,
		Mailer:         mailer,
	}
	for _, fn := range opts {
		fn(&o)
	}

	srv, err := NewServer(d, o)
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	return &testEnv{
		srv:    srv,
		db:     d,
		images: images,
		mailer: mailer,
		props:  property.NewRepository(d),
		users:  auth.NewUserStore(d),
	}
}

// user creates a confirmed account and returns it with a session cookie.
func (e *testEnv) user(t *testing.T, name, email string) (*auth.User, *http.Cookie) {
	t.Helper()
	u, err := e.users.CreateConfirmed(context.Background(), name, email, "secreto123")
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	token, _, err := auth.NewSessions(testSecret, time.Hour, false).Token(u)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return u, &http.Cookie{Name: auth.CookieName, Value: token}
}

func (e *testEnv) property(t *testing.T, owner int64, title string, published bool) *property.Property {
	t.Helper()
	p := &property.Property{
		Title:       title,
		Description: "Casa con jardín",
		Bedrooms:    3,
		Parking:     1,
		Bathrooms:   2,
		Street:      "Av. Mitre 123",
		Lat:         "-27.368532",
		Lng:         "-55.897119",
		Published:   published,
		UserID:      owner,
		CategoryID:  1,
		PriceID:     2,
	}
	if published {
		p.Image = "casa.jpg"
	}
	saved, err := e.props.Insert(context.Background(), p)
	if err != nil {
		t.Fatalf("inserting property: %v", err)
	}
	return saved
}

func (e *testEnv) get(t *testing.T, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil), cookie)
}

func (e *testEnv) postForm(t *testing.T, path string, values url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req, cookie)
}

func (e *testEnv) do(t *testing.T, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, req)
	return w
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	assertRedirectCode(t, w, http.StatusFound, want)
}

func assertRedirectCode(t *testing.T, w *httptest.ResponseRecorder, code int, want string) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("status = %d, want %d (body %q)", w.Code, code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

func propertyForm() url.Values {
	return url.Values{
		"titulo":          {"Casa en el centro"},
		"descripcion":     {"Amplia casa con patio"},
		"categoria":       {"1"},
		"precio":          {"3"},
		"habitaciones":    {"3"},
		"estacionamiento": {"2"},
		"wc":              {"1"},
		"calle":           {"Calle 1"},
		"lat":             {"-27.36"},
		"lng":             {"-55.89"},
	}
}
