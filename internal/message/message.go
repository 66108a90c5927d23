// Package message stores buyer inquiries about a property and lists them for
// the property's owner.
package message

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/evcraddock/bienesraices/internal/access"
	"github.com/evcraddock/bienesraices/internal/form"
)

// MinLength is the shortest message body accepted, in characters.
const MinLength = 10

// Sender is the public profile of the user who wrote a message.
type Sender struct {
	ID    int64  `json:"id"`
	Name  string `json:"nombre"`
	Email string `json:"email"`
}

// Message is an inquiry sent to a property's owner.
type Message struct {
	ID         int64     `json:"id"`
	Body       string    `json:"mensaje"`
	PropertyID int64     `json:"propiedadId"`
	Sender     Sender    `json:"usuario"`
	CreatedAt  time.Time `json:"createdAt"`
}

type submission struct {
	Body string `validate:"min=10"`
}

var messages = form.Messages{
	"Body": "El mensaje no puede estar vacio o es muy corto",
}

// Validate checks a message body. It returns *form.Errors when the body is
// shorter than MinLength characters.
func Validate(body string) error {
	return form.Validate(submission{Body: body}, messages)
}

// Repository provides storage for messages.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a message repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Send validates body and stores it as a message from sender about the
// property. Anonymous senders are refused with access.ErrDenied.
func (r *Repository) Send(ctx context.Context, sender access.Actor, propertyID int64, body string) (*Message, error) {
	if access.Anonymous(sender) {
		return nil, access.ErrDenied
	}
	if err := Validate(body); err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (body, user_id, property_id) VALUES (?, ?, ?)",
		body, sender.ActorID(), propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	m, err := scanMessage(r.db.QueryRowContext(ctx, selectSQL+" WHERE m.id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("reading back message: %w", err)
	}
	slog.Info("message sent", "property_id", propertyID, "sender_id", m.Sender.ID)
	return m, nil
}

// ListByPropertyID returns a property's messages, newest first, with each
// sender's public profile. Callers must authorize the reader first.
func (r *Repository) ListByPropertyID(ctx context.Context, propertyID int64) ([]*Message, error) {
	rows, err := r.db.QueryContext(ctx, selectSQL+" WHERE m.property_id = ? ORDER BY m.id DESC", propertyID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "err", cerr)
		}
	}()

	msgs := []*Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return msgs, nil
}

const selectSQL = `SELECT m.id, m.body, m.property_id, m.created_at, u.id, u.name, u.email
	FROM messages m JOIN users u ON u.id = m.user_id`

func scanMessage(row interface{ Scan(...interface{}) error }) (*Message, error) {
	var m Message
	if err := row.Scan(&m.ID, &m.Body, &m.PropertyID, &m.CreatedAt, &m.Sender.ID, &m.Sender.Name, &m.Sender.Email); err != nil {
		return nil, err
	}
	return &m, nil
}
