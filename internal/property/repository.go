package property

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNotFound is returned when a property does not exist.
var ErrNotFound = errors.New("property not found")

// likeEscaper makes LIKE wildcards in search terms match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Repository provides CRUD operations for properties.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a property repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `p.id, p.title, p.description, p.bedrooms, p.parking, p.bathrooms,
	p.street, p.lat, p.lng, p.image, p.published,
	p.user_id, p.category_id, p.price_id,
	COALESCE(c.name, ''), COALESCE(pr.name, ''),
	(SELECT COUNT(*) FROM messages m WHERE m.property_id = p.id),
	p.created_at, p.updated_at`

const fromJoined = `FROM properties p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN prices pr ON pr.id = p.price_id`

// Insert stores a new property and returns it with its generated ID.
func (r *Repository) Insert(ctx context.Context, p *Property) (*Property, error) {
	result, err := r.db.ExecContext(ctx, `INSERT INTO properties
		(title, description, bedrooms, parking, bathrooms, street, lat, lng, image, published, user_id, category_id, price_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Description, p.Bedrooms, p.Parking, p.Bathrooms,
		p.Street, p.Lat, p.Lng, p.Image, p.Published,
		p.UserID, p.CategoryID, p.PriceID,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID returns a property with its category and price.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Property, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE p.id = ?", selectColumns, fromJoined)
	p, err := scanProperty(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %d: %w", id, err)
	}
	return p, nil
}

// ListOptions controls filtering for List.
type ListOptions struct {
	OwnerID       int64 // 0 = any owner
	PublishedOnly bool
	CategoryID    int64  // 0 = any category
	Search        string // matched against title and description
	Newest        bool   // order by creation time, newest first
	Limit         int    // 0 = no limit
	Offset        int
}

// List returns properties matching opts, ordered by ID unless Newest is set.
func (r *Repository) List(ctx context.Context, opts ListOptions) ([]*Property, error) {
	where, args := opts.conditions()
	query := fmt.Sprintf("SELECT %s %s%s", selectColumns, fromJoined, where)

	if opts.Newest {
		query += " ORDER BY p.created_at DESC, p.id DESC"
	} else {
		query += " ORDER BY p.id"
	}
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "err", cerr)
		}
	}()

	properties := []*Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}

	return properties, nil
}

// Count returns how many properties match opts. Limit and Offset are ignored.
func (r *Repository) Count(ctx context.Context, opts ListOptions) (int, error) {
	where, args := opts.conditions()
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties p"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting properties: %w", err)
	}
	return n, nil
}

func (o ListOptions) conditions() (string, []interface{}) {
	var conds []string
	var args []interface{}

	if o.OwnerID != 0 {
		conds = append(conds, "p.user_id = ?")
		args = append(args, o.OwnerID)
	}
	if o.PublishedOnly {
		conds = append(conds, "p.published = 1")
	}
	if o.CategoryID != 0 {
		conds = append(conds, "p.category_id = ?")
		args = append(args, o.CategoryID)
	}
	if term := strings.TrimSpace(o.Search); term != "" {
		conds = append(conds, `(p.title LIKE ? ESCAPE '\' OR p.description LIKE ? ESCAPE '\')`)
		like := "%" + likeEscaper.Replace(term) + "%"
		args = append(args, like, like)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// UpdateDetails overwrites the user-editable fields. Owner, image and
// published state are untouched.
func (r *Repository) UpdateDetails(ctx context.Context, p *Property) error {
	result, err := r.db.ExecContext(ctx, `UPDATE properties SET
		title = ?, description = ?, bedrooms = ?, parking = ?, bathrooms = ?,
		street = ?, lat = ?, lng = ?, category_id = ?, price_id = ?,
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		p.Title, p.Description, p.Bedrooms, p.Parking, p.Bathrooms,
		p.Street, p.Lat, p.Lng, p.CategoryID, p.PriceID,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating property %d: %w", p.ID, err)
	}
	return expectOneRow(result, p.ID)
}

// Publish sets the image and flips published in one statement. It only
// matches drafts and reports false when nothing changed.
func (r *Repository) Publish(ctx context.Context, id int64, image string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE properties SET image = ?, published = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND published = 0 AND image = ''",
		image, id,
	)
	if err != nil {
		return false, fmt.Errorf("publishing property %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking affected rows: %w", err)
	}
	return n == 1, nil
}

// TogglePublished inverts the published flag and returns the new value.
func (r *Repository) TogglePublished(ctx context.Context, id int64) (bool, error) {
	var published bool
	err := r.db.QueryRowContext(ctx,
		"UPDATE properties SET published = 1 - published, updated_at = CURRENT_TIMESTAMP WHERE id = ? RETURNING published",
		id,
	).Scan(&published)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("toggling property %d: %w", id, err)
	}
	return published, nil
}

// Delete removes a property. Its messages go with it.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting property %d: %w", id, err)
	}
	return expectOneRow(result, id)
}

func expectOneRow(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	return nil
}
