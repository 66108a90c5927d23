// Package lookup reads the seeded category and price-tier reference tables.
package lookup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound is returned for unknown category or price IDs.
var ErrNotFound = errors.New("reference not found")

// Ref is a reference row: a category or a price tier.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// Repository lists reference data.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a lookup repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Categories returns every category ordered by ID.
func (r *Repository) Categories(ctx context.Context) ([]Ref, error) {
	return r.list(ctx, "categories")
}

// Prices returns every price tier ordered by ID.
func (r *Repository) Prices(ctx context.Context) ([]Ref, error) {
	return r.list(ctx, "prices")
}

// Category returns one category by ID.
func (r *Repository) Category(ctx context.Context, id int64) (*Ref, error) {
	return r.get(ctx, "categories", id)
}

// Price returns one price tier by ID.
func (r *Repository) Price(ctx context.Context, id int64) (*Ref, error) {
	return r.get(ctx, "prices", id)
}

func (r *Repository) get(ctx context.Context, table string, id int64) (*Ref, error) {
	var ref Ref
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM "+table+" WHERE id = ?", id).Scan(&ref.ID, &ref.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s %d: %w", table, id, err)
	}
	return &ref, nil
}

// list and get are only ever called with the two table names above.
func (r *Repository) list(ctx context.Context, table string) ([]Ref, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM "+table+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "table", table, "err", cerr)
		}
	}()

	var refs []Ref
	for rows.Next() {
		var ref Ref
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}
	return refs, nil
}
