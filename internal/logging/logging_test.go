package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func TestSetup(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	Setup(true)
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug enabled in dev mode")
	}

	Setup(false)
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug disabled in prod mode")
	}
}

func TestRequestLogger(t *testing.T) {
	buf := captureLogs(t)

	req := httptest.NewRequest("GET", "/api/propiedades", nil)
	RequestLogger(statusHandler(http.StatusOK)).ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if !strings.Contains(out, "GET") {
		t.Error("expected method in log")
	}
	if !strings.Contains(out, "/api/propiedades") {
		t.Error("expected path in log")
	}
	if !strings.Contains(out, "level=INFO") {
		t.Errorf("expected info level, got %q", out)
	}
}

func TestRequestLoggerSkipsQuietPaths(t *testing.T) {
	for _, path := range []string{"/static/css/app.css", "/uploads/casa.jpg", "/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			buf := captureLogs(t)

			req := httptest.NewRequest("GET", path, nil)
			RequestLogger(statusHandler(http.StatusOK)).ServeHTTP(httptest.NewRecorder(), req)

			if buf.Len() > 0 {
				t.Errorf("expected no log for %s, got %q", path, buf.String())
			}
		})
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusFound, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		buf := captureLogs(t)

		req := httptest.NewRequest("GET", "/propiedad/1", nil)
		RequestLogger(statusHandler(tt.status)).ServeHTTP(httptest.NewRecorder(), req)

		if !strings.Contains(buf.String(), tt.level) {
			t.Errorf("status %d: expected %s in %q", tt.status, tt.level, buf.String())
		}
	}
}

func TestResponseWriterKeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := wrap(rec)

	if _, err := rw.Write([]byte("ok")); err != nil {
		t.Fatalf("write: %v", err)
	}
	rw.WriteHeader(http.StatusTeapot)

	if rw.status != http.StatusOK {
		t.Errorf("status = %d, want 200", rw.status)
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	return string(body)
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	m := NewMetrics()

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.Handle("/propiedad/{id}", statusHandler(http.StatusOK)).Methods("GET")

	for _, path := range []string{"/propiedad/1", "/propiedad/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	out := scrape(t, m)
	want := `bienesraices_http_requests_total{method="GET",route="/propiedad/{id}",status="200"} 2`
	if !strings.Contains(out, want) {
		t.Errorf("expected %q in:\n%s", want, out)
	}
	if !strings.Contains(out, "bienesraices_http_request_duration_seconds_bucket") {
		t.Error("expected latency histogram")
	}
}

func TestMetricsRateLimited(t *testing.T) {
	m := NewMetrics()
	m.RateLimited("/auth/login")

	out := scrape(t, m)
	if !strings.Contains(out, `bienesraices_rate_limit_hits_total{route="/auth/login"} 1`) {
		t.Errorf("expected rate limit counter in:\n%s", out)
	}
}

func TestNewMetricsTwice(t *testing.T) {
	// Each instance owns its registry, so building two must not panic.
	NewMetrics()
	NewMetrics()
}
