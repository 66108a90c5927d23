package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/bienesraices/internal/auth"
	"github.com/evcraddock/bienesraices/internal/catalog"
	"github.com/evcraddock/bienesraices/internal/form"
	"github.com/evcraddock/bienesraices/internal/lookup"
	"github.com/evcraddock/bienesraices/internal/property"
)

// Seeded category IDs featured on the home page.
const (
	categoryHouses     = 1
	categoryApartments = 2
	homeListingCount   = 3
)

type homeData struct {
	Categories []lookup.Ref
	Prices     []lookup.Ref
	Houses     []*property.Property
	Apartments []*property.Property
	Lat, Lng   float64
	Zoom       int
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := s.refs.Categories(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	prices, err := s.refs.Prices(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	houses, err := s.props.Latest(ctx, categoryHouses, homeListingCount)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	apartments, err := s.props.Latest(ctx, categoryApartments, homeListingCount)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "inicio.html", "Inicio", homeData{
		Categories: categories,
		Prices:     prices,
		Houses:     houses,
		Apartments: apartments,
		Lat:        catalog.DefaultLat,
		Lng:        catalog.DefaultLng,
		Zoom:       catalog.DefaultZoom,
	})
}

type listingData struct {
	Heading    string
	Term       string
	Properties []*property.Property
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, PathNotFound, http.StatusFound)
		return
	}

	cat, err := s.refs.Category(r.Context(), id)
	if errors.Is(err, lookup.ErrNotFound) {
		http.Redirect(w, r, PathNotFound, http.StatusFound)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	props, err := s.props.Latest(r.Context(), cat.ID, 0)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	heading := cat.Name + "s en Venta"
	s.render(w, r, http.StatusOK, "listado.html", heading, listingData{Heading: heading, Properties: props})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	term := strings.TrimSpace(r.FormValue("termino"))
	if term == "" {
		http.Redirect(w, r, PathHome, http.StatusFound)
		return
	}

	props, err := s.props.Search(r.Context(), term)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "listado.html", "Resultados de la Búsqueda", listingData{
		Heading:    "Resultados de la Búsqueda",
		Term:       term,
		Properties: props,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "404.html", "No Encontrada", nil)
}

// handleCatalog serves every published property for the home page map.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	props, err := s.props.Catalog(r.Context())
	if err != nil {
		slog.Error("loading catalog", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, props)
}

type detailData struct {
	Property *property.Property
	IsSeller bool
	Body     string
	Errors   *form.Errors
}

// handleDetail renders a published property. Anything else goes to the
// not-found page, owners included.
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	p, ok := s.publicProperty(w, r)
	if !ok {
		return
	}
	s.renderDetail(w, r, http.StatusOK, p, "", nil)
}

// handleSendMessage stores a buyer inquiry. Success returns to the home
// page; a short message re-renders the detail page.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := s.publicProperty(w, r)
	if !ok {
		return
	}

	user := auth.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, PathLogin, http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	body := r.FormValue("mensaje")

	_, err := s.messages.Send(r.Context(), user, p.ID, body)
	if fe, ok := form.AsErrors(err); ok {
		s.renderDetail(w, r, http.StatusUnprocessableEntity, p, body, fe)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, PathHome, http.StatusFound)
}

func (s *Server) publicProperty(w http.ResponseWriter, r *http.Request) (*property.Property, bool) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, PathNotFound, http.StatusFound)
		return nil, false
	}

	p, err := s.props.Public(r.Context(), auth.UserFromContext(r.Context()), id)
	if errors.Is(err, property.ErrNotFound) {
		http.Redirect(w, r, PathNotFound, http.StatusFound)
		return nil, false
	}
	if err != nil {
		s.serverError(w, r, err)
		return nil, false
	}
	return p, true
}

func (s *Server) renderDetail(w http.ResponseWriter, r *http.Request, status int, p *property.Property, body string, errs *form.Errors) {
	user := auth.UserFromContext(r.Context())
	s.render(w, r, status, "mostrar.html", p.Title, detailData{
		Property: p,
		IsSeller: user != nil && user.ID == p.UserID,
		Body:     body,
		Errors:   errs,
	})
}
