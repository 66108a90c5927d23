package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/evcraddock/bienesraices/internal/access"
	"github.com/evcraddock/bienesraices/internal/auth"
	"github.com/evcraddock/bienesraices/internal/form"
	"github.com/evcraddock/bienesraices/internal/lookup"
	"github.com/evcraddock/bienesraices/internal/message"
	"github.com/evcraddock/bienesraices/internal/property"
	"github.com/evcraddock/bienesraices/internal/upload"
)

// denied sends the owner back to their own listing when err is an
// authorization or lookup failure, so other users' drafts stay invisible.
// It reports whether a response was written.
func (s *Server) denied(w http.ResponseWriter, r *http.Request, err error) bool {
	if errors.Is(err, access.ErrDenied) ||
		errors.Is(err, property.ErrNotFound) ||
		errors.Is(err, property.ErrAlreadyPublished) ||
		errors.Is(err, property.ErrDraft) {
		code := http.StatusFound
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			// fetch keeps the method on 302; 303 makes it a GET.
			code = http.StatusSeeOther
		}
		http.Redirect(w, r, PathAdmin, code)
		return true
	}
	return false
}

type adminData struct {
	Page *property.Page
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	page, err := property.ParsePage(r.URL.Query().Get("pagina"))
	if err != nil {
		http.Redirect(w, r, PathAdmin+"?pagina=1", http.StatusFound)
		return
	}

	result, err := s.props.ListOwned(r.Context(), auth.UserFromContext(r.Context()), page)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "admin.html", "Mis Propiedades", adminData{Page: result})
}

type formData struct {
	ID         int64
	Action     string
	Form       property.Form
	Categories []lookup.Ref
	Prices     []lookup.Ref
	Errors     *form.Errors
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, title string, data formData) {
	var err error
	if data.Categories, err = s.refs.Categories(r.Context()); err != nil {
		s.serverError(w, r, err)
		return
	}
	if data.Prices, err = s.refs.Prices(r.Context()); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, status, "formulario.html", title, data)
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, r, http.StatusOK, "Crear Propiedad", formData{Action: PathCreate})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	f := property.FormFromValues(r.PostFormValue)

	p, err := s.props.CreateDraft(r.Context(), auth.UserFromContext(r.Context()), f)
	if fe, ok := form.AsErrors(err); ok {
		s.renderForm(w, r, http.StatusUnprocessableEntity, "Crear Propiedad", formData{Action: PathCreate, Form: f, Errors: fe})
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/propiedades/agregar-imagen/%d", p.ID), http.StatusFound)
}

type attachData struct {
	Property *property.Property
	Error    string
}

func (s *Server) handleAttachPage(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	p, err := s.props.PrepareImage(r.Context(), auth.UserFromContext(r.Context()), id)
	if err != nil {
		if !s.denied(w, r, err) {
			s.serverError(w, r, err)
		}
		return
	}

	s.render(w, r, http.StatusOK, "agregar-imagen.html", "Agregar Imagen: "+p.Title, attachData{Property: p})
}

// handleAttach receives the single image upload and publishes the draft.
func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	user := auth.UserFromContext(r.Context())

	p, err := s.props.PrepareImage(r.Context(), user, id)
	if err != nil {
		if !s.denied(w, r, err) {
			s.serverError(w, r, err)
		}
		return
	}

	file, header, err := upload.FromRequest(w, r)
	if err != nil {
		msg, ok := uploadMessage(err)
		if !ok {
			s.serverError(w, r, err)
			return
		}
		s.render(w, r, http.StatusBadRequest, "agregar-imagen.html", "Agregar Imagen: "+p.Title, attachData{Property: p, Error: msg})
		return
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			slog.Warn("closing upload", "err", cerr)
		}
	}()

	if _, err := s.props.AttachImage(r.Context(), user, id, file, header.Filename); err != nil {
		if errors.Is(err, upload.ErrTooLarge) || errors.Is(err, upload.ErrUnsupported) {
			msg, _ := uploadMessage(err)
			s.render(w, r, http.StatusBadRequest, "agregar-imagen.html", "Agregar Imagen: "+p.Title, attachData{Property: p, Error: msg})
			return
		}
		if !s.denied(w, r, err) {
			s.serverError(w, r, err)
		}
		return
	}

	http.Redirect(w, r, PathAdmin, http.StatusFound)
}

func uploadMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, upload.ErrMissing):
		return "Selecciona una imagen", true
	case errors.Is(err, upload.ErrTooMany):
		return "Solo puedes subir una imagen", true
	case errors.Is(err, upload.ErrTooLarge):
		return "La imagen es muy pesada, el máximo es 5MB", true
	case errors.Is(err, upload.ErrUnsupported):
		return "Formato no válido, usa png, jpg, jpeg, webp o avif", true
	}
	return "", false
}

func (s *Server) handleEditPage(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	p, err := s.props.Get(r.Context(), auth.UserFromContext(r.Context()), id, access.Edit)
	if err != nil {
		if !s.denied(w, r, err) {
			s.serverError(w, r, err)
		}
		return
	}

	s.renderForm(w, r, http.StatusOK, "Editar Propiedad: "+p.Title, formData{
		ID:     p.ID,
		Action: fmt.Sprintf("/propiedades/editar/%d", p.ID),
		Form:   property.FormFromProperty(p),
	})
}

// handleEdit checks ownership before validating, and a failed validation
// ends the request with the re-rendered form.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	f := property.FormFromValues(r.PostFormValue)

	_, err := s.props.Edit(r.Context(), auth.UserFromContext(r.Context()), id, f)
	if fe, ok := form.AsErrors(err); ok {
		s.renderForm(w, r, http.StatusUnprocessableEntity, "Editar Propiedad", formData{
			ID:     id,
			Action: fmt.Sprintf("/propiedades/editar/%d", id),
			Form:   f,
			Errors: fe,
		})
		return
	}
	if err != nil {
		if !s.denied(w, r, err) {
			s.serverError(w, r, err)
		}
		return
	}

	http.Redirect(w, r, PathAdmin, http.StatusFound)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	if err := s.props.Delete(r.Context(), auth.UserFromContext(r.Context()), id); err != nil {
		if !s.denied(w, r, err) {
			s.serverError(w, r, err)
		}
		return
	}
	http.Redirect(w, r, PathAdmin, http.StatusFound)
}

// handleToggle flips a property between published and unpublished. It is
// called with fetch from the owner's listing.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	published, err := s.props.TogglePublish(r.Context(), auth.UserFromContext(r.Context()), id)
	if err != nil {
		if !s.denied(w, r, err) {
			slog.Error("toggling property", "property_id", id, "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]bool{"resultado": false})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"resultado": true, "publicado": published})
}

type messagesData struct {
	Property *property.Property
	Messages []*message.Message
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	p, err := s.props.Get(r.Context(), auth.UserFromContext(r.Context()), id, access.ReadMessages)
	if err != nil {
		if !s.denied(w, r, err) {
			s.serverError(w, r, err)
		}
		return
	}

	msgs, err := s.messages.ListByPropertyID(r.Context(), p.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "mensajes.html", "Mensajes", messagesData{Property: p, Messages: msgs})
}
