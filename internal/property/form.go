package property

import (
	"strconv"
	"strings"

	"github.com/evcraddock/bienesraices/internal/form"
)

// Form is the create/edit form as submitted. Values stay strings so an
// invalid submission can be echoed back unchanged.
type Form struct {
	Title       string `validate:"required"`
	Description string `validate:"required,max=100"`
	Category    string `validate:"required,number"`
	Price       string `validate:"required,number"`
	Bedrooms    string `validate:"required,number"`
	Parking     string `validate:"required,number"`
	Bathrooms   string `validate:"required,number"`
	Street      string
	Lat         string `validate:"required"`
	Lng         string
}

var formMessages = form.Messages{
	"Title":                "El titulo no puede estar vacio",
	"Description.required": "La descripción no puede estar vacio",
	"Description.max":      "La descripcion es muy larga",
	"Category":             "Seleccione una categoria",
	"Price":                "Seleccione un precio",
	"Bedrooms":             "Seleccione la cantidad de habitaciones",
	"Parking":              "Seleccione la cantidad de estacionamientos",
	"Bathrooms":            "Seleccione la cantidad de WC",
	"Lat":                  "Ubica la propiedad en el mapa",
}

// FormFromValues reads the Spanish form field names.
func FormFromValues(get func(string) string) Form {
	return Form{
		Title:       strings.TrimSpace(get("titulo")),
		Description: strings.TrimSpace(get("descripcion")),
		Category:    strings.TrimSpace(get("categoria")),
		Price:       strings.TrimSpace(get("precio")),
		Bedrooms:    strings.TrimSpace(get("habitaciones")),
		Parking:     strings.TrimSpace(get("estacionamiento")),
		Bathrooms:   strings.TrimSpace(get("wc")),
		Street:      strings.TrimSpace(get("calle")),
		Lat:         strings.TrimSpace(get("lat")),
		Lng:         strings.TrimSpace(get("lng")),
	}
}

// FormFromProperty fills a form with stored values for editing.
func FormFromProperty(p *Property) Form {
	return Form{
		Title:       p.Title,
		Description: p.Description,
		Category:    strconv.FormatInt(p.CategoryID, 10),
		Price:       strconv.FormatInt(p.PriceID, 10),
		Bedrooms:    strconv.Itoa(p.Bedrooms),
		Parking:     strconv.Itoa(p.Parking),
		Bathrooms:   strconv.Itoa(p.Bathrooms),
		Street:      p.Street,
		Lat:         p.Lat,
		Lng:         p.Lng,
	}
}

// Validate returns *form.Errors when the submission is not acceptable.
func (f Form) Validate() error {
	return form.Validate(f, formMessages)
}

// apply copies validated form values onto p.
func (f Form) apply(p *Property) error {
	var err error
	if p.CategoryID, err = strconv.ParseInt(f.Category, 10, 64); err != nil {
		return form.NewErrors("Category", formMessages["Category"])
	}
	if p.PriceID, err = strconv.ParseInt(f.Price, 10, 64); err != nil {
		return form.NewErrors("Price", formMessages["Price"])
	}
	if p.Bedrooms, err = strconv.Atoi(f.Bedrooms); err != nil {
		return form.NewErrors("Bedrooms", formMessages["Bedrooms"])
	}
	if p.Parking, err = strconv.Atoi(f.Parking); err != nil {
		return form.NewErrors("Parking", formMessages["Parking"])
	}
	if p.Bathrooms, err = strconv.Atoi(f.Bathrooms); err != nil {
		return form.NewErrors("Bathrooms", formMessages["Bathrooms"])
	}
	p.Title = f.Title
	p.Description = f.Description
	p.Street = f.Street
	p.Lat = f.Lat
	p.Lng = f.Lng
	return nil
}
