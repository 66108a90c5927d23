// Package catalog filters the public property catalog and turns it into map
// markers. The home page script applies the same rules in the browser.
package catalog

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/evcraddock/bienesraices/internal/property"
)

// Map defaults for the home page.
const (
	DefaultLat  = -27.368532
	DefaultLng  = -55.897119
	DefaultZoom = 16
)

// Filter narrows the catalog by category and price tier. Zero means no
// constraint on that attribute.
type Filter struct {
	CategoryID int64 `json:"categoria"`
	PriceID    int64 `json:"precio"`
}

// ParseFilter builds a Filter from the raw select values. Empty or
// non-numeric values leave the attribute unconstrained.
func ParseFilter(categoria, precio string) Filter {
	return Filter{CategoryID: parseID(categoria), PriceID: parseID(precio)}
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// Match reports whether p satisfies every active constraint.
func (f Filter) Match(p *property.Property) bool {
	if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
		return false
	}
	if f.PriceID != 0 && p.PriceID != f.PriceID {
		return false
	}
	return true
}

// Apply returns the properties matching f, preserving order.
func (f Filter) Apply(props []*property.Property) []*property.Property {
	out := make([]*property.Property, 0, len(props))
	for _, p := range props {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Marker is one map pin.
type Marker struct {
	ID    int64         `json:"id"`
	Lat   float64       `json:"lat"`
	Lng   float64       `json:"lng"`
	Title string        `json:"titulo"`
	Popup template.HTML `json:"popup"`
}

var popupTmpl = template.Must(template.New("popup").Parse(
	`<p class="text-indigo-600 font-bold">{{.Category}}</p>` +
		`<h1 class="text-xl font-extrabold uppercase my-2">{{.Title}}</h1>` +
		`<img src="/uploads/{{.Image}}" alt="Imagen de la propiedad {{.Title}}">` +
		`<p class="text-gray-600 font-bold">{{.Price}}</p>` +
		`<a href="/propiedad/{{.ID}}" class="block p-2 text-center font-bold uppercase">Ver Propiedad</a>`,
))

// Markers builds one marker per property. Properties whose coordinates do
// not parse are skipped.
func Markers(props []*property.Property) ([]Marker, error) {
	out := make([]Marker, 0, len(props))
	for _, p := range props {
		lat, errLat := strconv.ParseFloat(p.Lat, 64)
		lng, errLng := strconv.ParseFloat(p.Lng, 64)
		if errLat != nil || errLng != nil {
			continue
		}

		popup, err := Popup(p)
		if err != nil {
			return nil, err
		}
		out = append(out, Marker{ID: p.ID, Lat: lat, Lng: lng, Title: p.Title, Popup: popup})
	}
	return out, nil
}

// Popup renders the marker popup for p with all fields escaped.
func Popup(p *property.Property) (template.HTML, error) {
	data := struct {
		ID       int64
		Title    string
		Image    string
		Category string
		Price    string
	}{ID: p.ID, Title: p.Title, Image: p.Image}
	if p.Category != nil {
		data.Category = p.Category.Name
	}
	if p.Price != nil {
		data.Price = p.Price.Name
	}

	var buf bytes.Buffer
	if err := popupTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering popup for property %d: %w", p.ID, err)
	}
	return template.HTML(buf.String()), nil
}
