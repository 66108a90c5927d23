package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evcraddock/bienesraices/internal/catalog"
	"github.com/evcraddock/bienesraices/internal/property"
)

func catalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		props := []*property.Property{
			{ID: 1, Title: "Casa grande", CategoryID: 1, PriceID: 2, Lat: "-27.36", Lng: "-55.89"},
			{ID: 2, Title: "Departamento chico", CategoryID: 2, PriceID: 2, Lat: "-27.37", Lng: "-55.90"},
			{ID: 3, Title: "Casa barata", CategoryID: 1, PriceID: 1, Lat: "", Lng: ""},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(props); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BR_SERVER_URL", srv.URL)
	return srv
}

func TestCatalogFilters(t *testing.T) {
	catalogServer(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"all", nil, []string{"Casa grande", "Departamento chico", "Casa barata"}, nil},
		{"category", []string{"--categoria", "1"}, []string{"Casa grande", "Casa barata"}, []string{"Departamento"}},
		{"both", []string{"--categoria", "1", "--precio", "2"}, []string{"Casa grande"}, []string{"Departamento", "barata"}},
		{"empty value", []string{"--categoria", ""}, []string{"Departamento chico"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeCommand(append([]string{"catalog"}, tt.args...)...)
			if err != nil {
				t.Fatalf("catalog: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("expected %q in output:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("unexpected %q in output:\n%s", w, out)
				}
			}
		})
	}
}

func TestCatalogJSON(t *testing.T) {
	catalogServer(t)

	out, err := executeCommand("catalog", "--precio", "2", "--format", "json")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	var props []*property.Property
	if err := json.Unmarshal([]byte(out), &props); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if len(props) != 2 {
		t.Errorf("got %d properties, want 2", len(props))
	}
}

func TestCatalogMarkers(t *testing.T) {
	catalogServer(t)

	out, err := executeCommand("catalog", "--categoria", "1", "--markers", "--format", "json")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	var pins []catalog.Marker
	if err := json.Unmarshal([]byte(out), &pins); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	// The property without coordinates gets no pin.
	if len(pins) != 1 || pins[0].ID != 1 {
		t.Fatalf("pins = %+v", pins)
	}
	if !strings.Contains(string(pins[0].Popup), "/propiedad/1") {
		t.Errorf("popup = %q", pins[0].Popup)
	}
}

func TestUseSavesServer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BR_SERVER_URL", "")

	if _, err := executeCommand("use", "https://casas.example.com"); err != nil {
		t.Fatalf("use: %v", err)
	}
	if got := getServerURL(); got != "https://casas.example.com" {
		t.Errorf("server = %q", got)
	}

	if _, err := executeCommand("use", "not a url"); err == nil {
		t.Error("expected error for invalid URL")
	}
}
