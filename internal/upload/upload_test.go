package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return s
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"casa.png", true},
		{"casa.JPG", true},
		{"casa.jpeg", true},
		{"casa.webp", true},
		{"casa.avif", true},
		{"casa.gif", false},
		{"casa.pdf", false},
		{"casa", false},
	}
	for _, tt := range tests {
		if got := Allowed(tt.name); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSaveAndRemove(t *testing.T) {
	s := testStore(t)

	name, err := s.Save(strings.NewReader("imagen"), "Foto.JPG")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Ext(name) != ".jpg" {
		t.Errorf("name = %q, want .jpg extension", name)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), name))
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != "imagen" {
		t.Errorf("content = %q", data)
	}

	if err := s.Remove(name); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), name)); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}

	if err := s.Remove(name); err != nil {
		t.Errorf("removing missing file: %v", err)
	}
}

func TestSaveNamesAreUnique(t *testing.T) {
	s := testStore(t)

	a, err := s.Save(strings.NewReader("a"), "a.png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := s.Save(strings.NewReader("b"), "a.png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if a == b {
		t.Errorf("both saves produced %q", a)
	}
}

func TestSaveRejects(t *testing.T) {
	s := testStore(t)

	if _, err := s.Save(strings.NewReader("x"), "doc.pdf"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("pdf err = %v, want ErrUnsupported", err)
	}

	big := bytes.NewReader(make([]byte, MaxSize+1))
	if _, err := s.Save(big, "big.png"); !errors.Is(err, ErrTooLarge) {
		t.Errorf("big err = %v, want ErrTooLarge", err)
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("left %d files behind", len(entries))
	}
}

func TestRemoveRejectsPaths(t *testing.T) {
	s := testStore(t)
	for _, name := range []string{"", "../etc/passwd", "sub/dir.png"} {
		if err := s.Remove(name); err == nil {
			t.Errorf("Remove(%q) succeeded", name)
		}
	}
}

func multipartRequest(t *testing.T, files map[string][]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, names := range files {
		for _, n := range names {
			fw, err := mw.CreateFormFile(field, n)
			if err != nil {
				t.Fatalf("creating part: %v", err)
			}
			if _, err := fw.Write([]byte("data")); err != nil {
				t.Fatalf("writing part: %v", err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/propiedades/agregar-imagen/1", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string][]string
		wantErr error
	}{
		{"single image", map[string][]string{Field: {"casa.webp"}}, nil},
		{"no image", map[string][]string{"otro": {"casa.png"}}, ErrMissing},
		{"two images", map[string][]string{Field: {"a.png", "b.png"}}, ErrTooMany},
		{"wrong type", map[string][]string{Field: {"casa.gif"}}, ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, tt.files)
			f, fh, err := FromRequest(httptest.NewRecorder(), req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer f.Close()
			if fh.Filename != "casa.webp" {
				t.Errorf("filename = %q", fh.Filename)
			}
		})
	}
}
