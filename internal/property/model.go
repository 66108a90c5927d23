// Package property provides the property listing model, its storage, and the
// publication workflow.
package property

import (
	"time"

	"github.com/evcraddock/bienesraices/internal/lookup"
)

// Property is a real-estate listing. JSON field names are part of the public
// catalog contract consumed by the map widget.
type Property struct {
	ID          int64       `json:"id"`
	Title       string      `json:"titulo"`
	Description string      `json:"descripcion"`
	Bedrooms    int         `json:"habitaciones"`
	Parking     int         `json:"estacionamiento"`
	Bathrooms   int         `json:"wc"`
	Street      string      `json:"calle"`
	Lat         string      `json:"lat"`
	Lng         string      `json:"lng"`
	Image       string      `json:"imagen"`
	Published   bool        `json:"publicado"`
	UserID      int64       `json:"usuarioId"`
	CategoryID  int64       `json:"categoriaId"`
	PriceID     int64       `json:"precioId"`
	Category    *lookup.Ref `json:"categoria,omitempty"`
	Price       *lookup.Ref `json:"precio,omitempty"`
	Messages    int         `json:"-"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// OwnerID returns the owning user's ID.
func (p *Property) OwnerID() int64 { return p.UserID }

// IsPublished reports whether the property is in the public catalog.
func (p *Property) IsPublished() bool { return p.Published }

// IsDraft reports whether the property still needs its image.
func (p *Property) IsDraft() bool { return !p.Published && p.Image == "" }

// scanProperty scans the columns listed in selectColumns.
func scanProperty(row interface{ Scan(...interface{}) error }) (*Property, error) {
	var p Property
	var catName, priceName string
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Bedrooms, &p.Parking, &p.Bathrooms,
		&p.Street, &p.Lat, &p.Lng, &p.Image, &p.Published,
		&p.UserID, &p.CategoryID, &p.PriceID,
		&catName, &priceName, &p.Messages,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Category = &lookup.Ref{ID: p.CategoryID, Name: catName}
	p.Price = &lookup.Ref{ID: p.PriceID, Name: priceName}
	return &p, nil
}
