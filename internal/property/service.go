package property

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/evcraddock/bienesraices/internal/access"
	"github.com/evcraddock/bienesraices/internal/form"
	"github.com/evcraddock/bienesraices/internal/lookup"
)

// PageSize is the number of properties per owner listing page.
const PageSize = 10

var (
	// ErrAlreadyPublished is returned when attaching an image to a
	// property that is no longer a draft.
	ErrAlreadyPublished = errors.New("property already published")
	// ErrDraft is returned when toggling visibility of a property that
	// has no image yet.
	ErrDraft = errors.New("property is still a draft")
	// ErrInvalidPage is returned for page numbers that are not positive integers.
	ErrInvalidPage = errors.New("invalid page number")
)

// Images stores uploaded property photos.
type Images interface {
	// Save stores src under a generated name derived from filename's
	// extension and returns that name.
	Save(src io.Reader, filename string) (string, error)
	// Remove deletes a stored image. A missing file is not an error.
	Remove(name string) error
}

// Service runs the property publication workflow. Every owner action is
// authorized through the access package.
type Service struct {
	repo   *Repository
	refs   *lookup.Repository
	images Images
}

// NewService creates a property service.
func NewService(repo *Repository, refs *lookup.Repository, images Images) *Service {
	return &Service{repo: repo, refs: refs, images: images}
}

// Get loads a property the actor may perform action on.
func (s *Service) Get(ctx context.Context, actor access.Actor, id int64, action access.Action) (*Property, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(actor, p, action); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateDraft validates f and stores an unpublished property without an
// image, owned by actor.
func (s *Service) CreateDraft(ctx context.Context, actor access.Actor, f Form) (*Property, error) {
	if access.Anonymous(actor) {
		return nil, access.ErrDenied
	}
	p := &Property{UserID: actor.ActorID()}
	if err := s.fill(ctx, p, f); err != nil {
		return nil, err
	}

	saved, err := s.repo.Insert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("saving draft: %w", err)
	}
	slog.Info("draft created", "property_id", saved.ID, "user_id", saved.UserID)
	return saved, nil
}

// PrepareImage checks that the actor may attach the image for property id.
func (s *Service) PrepareImage(ctx context.Context, actor access.Actor, id int64) (*Property, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsDraft() {
		return nil, ErrAlreadyPublished
	}
	if err := access.Check(actor, p, access.AttachImage); err != nil {
		return nil, err
	}
	return p, nil
}

// AttachImage stores the uploaded image and publishes the property in the
// same update. It is the only way a property leaves the draft state.
func (s *Service) AttachImage(ctx context.Context, actor access.Actor, id int64, src io.Reader, filename string) (*Property, error) {
	p, err := s.PrepareImage(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	name, err := s.images.Save(src, filename)
	if err != nil {
		return nil, fmt.Errorf("storing image: %w", err)
	}

	published, err := s.repo.Publish(ctx, id, name)
	if err == nil && !published {
		err = ErrAlreadyPublished
	}
	if err != nil {
		if rmErr := s.images.Remove(name); rmErr != nil {
			slog.Error("removing orphaned image", "image", name, "err", rmErr)
		}
		return nil, err
	}

	p.Image = name
	p.Published = true
	slog.Info("property published", "property_id", id, "image", name)
	return p, nil
}

// Edit overwrites the editable fields of a property the actor owns.
// Ownership is checked before the form is validated.
func (s *Service) Edit(ctx context.Context, actor access.Actor, id int64, f Form) (*Property, error) {
	p, err := s.Get(ctx, actor, id, access.Edit)
	if err != nil {
		return nil, err
	}
	if err := s.fill(ctx, p, f); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDetails(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// TogglePublish inverts the published flag and returns the new value.
// Drafts only become visible through AttachImage.
func (s *Service) TogglePublish(ctx context.Context, actor access.Actor, id int64) (bool, error) {
	p, err := s.Get(ctx, actor, id, access.TogglePublish)
	if err != nil {
		return false, err
	}
	if p.IsDraft() {
		return false, ErrDraft
	}
	published, err := s.repo.TogglePublished(ctx, id)
	if err != nil {
		return false, err
	}
	slog.Info("property visibility changed", "property_id", id, "published", published)
	return published, nil
}

// Delete removes the stored image and then the property. If the image
// cannot be removed the property is kept and the error returned.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id int64) error {
	p, err := s.Get(ctx, actor, id, access.Delete)
	if err != nil {
		return err
	}

	if p.Image != "" {
		if err := s.images.Remove(p.Image); err != nil {
			return fmt.Errorf("removing image %s: %w", p.Image, err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("property deleted", "property_id", id)
	return nil
}

// Page is one page of an owner's properties.
type Page struct {
	Properties []*Property
	Current    int
	Pages      int
	Total      int
	Offset     int
	Limit      int
}

// ParsePage parses a 1-based page number of any length.
func ParsePage(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidPage
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, ErrInvalidPage
	}
	return n, nil
}

// ListOwned returns page p of the actor's properties ordered by ID.
func (s *Service) ListOwned(ctx context.Context, actor access.Actor, page int) (*Page, error) {
	if access.Anonymous(actor) {
		return nil, access.ErrDenied
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}

	offset := (page - 1) * PageSize
	opts := ListOptions{OwnerID: actor.ActorID(), Limit: PageSize, Offset: offset}

	props, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &Page{
		Properties: props,
		Current:    page,
		Pages:      (total + PageSize - 1) / PageSize,
		Total:      total,
		Offset:     offset,
		Limit:      PageSize,
	}, nil
}

// Catalog returns every published property with its category and price.
func (s *Service) Catalog(ctx context.Context) ([]*Property, error) {
	return s.repo.List(ctx, ListOptions{PublishedOnly: true})
}

// Public returns a published property. Drafts and unpublished properties
// are reported as ErrNotFound.
func (s *Service) Public(ctx context.Context, actor access.Actor, id int64) (*Property, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if access.Authorize(actor, p, access.ViewPublic) == access.Deny {
		return nil, ErrNotFound
	}
	return p, nil
}

// Latest returns the newest published properties in a category.
func (s *Service) Latest(ctx context.Context, categoryID int64, n int) ([]*Property, error) {
	return s.repo.List(ctx, ListOptions{PublishedOnly: true, CategoryID: categoryID, Newest: true, Limit: n})
}

// Search returns published properties whose title or description contain term.
func (s *Service) Search(ctx context.Context, term string) ([]*Property, error) {
	return s.repo.List(ctx, ListOptions{PublishedOnly: true, Search: term, Newest: true})
}

// fill validates f, checks its category and price exist, and copies it onto p.
func (s *Service) fill(ctx context.Context, p *Property, f Form) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if err := f.apply(p); err != nil {
		return err
	}

	if _, err := s.refs.Category(ctx, p.CategoryID); err != nil {
		if errors.Is(err, lookup.ErrNotFound) {
			return form.NewErrors("Category", formMessages["Category"])
		}
		return err
	}
	if _, err := s.refs.Price(ctx, p.PriceID); err != nil {
		if errors.Is(err, lookup.ErrNotFound) {
			return form.NewErrors("Price", formMessages["Price"])
		}
		return err
	}
	return nil
}
