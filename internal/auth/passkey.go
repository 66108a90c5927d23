package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-webauthn/webauthn/webauthn"
)

// ErrCredentialNotFound is returned when deleting an unknown passkey.
var ErrCredentialNotFound = errors.New("credential not found")

// PasskeyUser adapts a User to webauthn.User.
type PasskeyUser struct {
	user        *User
	credentials []webauthn.Credential
}

// NewPasskeyUser wraps a user and their stored credentials.
func NewPasskeyUser(u *User, credentials []webauthn.Credential) *PasskeyUser {
	return &PasskeyUser{user: u, credentials: credentials}
}

// User returns the wrapped account.
func (p *PasskeyUser) User() *User { return p.user }

// WebAuthnID is the decimal user ID, which doubles as the user handle
// returned by discoverable logins.
func (p *PasskeyUser) WebAuthnID() []byte {
	return []byte(strconv.FormatInt(p.user.ID, 10))
}

// WebAuthnName returns the email.
func (p *PasskeyUser) WebAuthnName() string { return p.user.Email }

// WebAuthnDisplayName returns the user's name.
func (p *PasskeyUser) WebAuthnDisplayName() string { return p.user.Name }

// WebAuthnCredentials returns the stored credentials.
func (p *PasskeyUser) WebAuthnCredentials() []webauthn.Credential { return p.credentials }

// UserIDFromHandle parses a user handle produced by WebAuthnID.
func UserIDFromHandle(handle []byte) (int64, error) {
	id, err := strconv.ParseInt(string(handle), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing user handle: %w", err)
	}
	return id, nil
}

// PasskeyStore manages passkey credentials in SQLite.
type PasskeyStore struct {
	db *sql.DB
}

// NewPasskeyStore creates a passkey store.
func NewPasskeyStore(db *sql.DB) *PasskeyStore {
	return &PasskeyStore{db: db}
}

// StoredCredential is a passkey credential with metadata.
type StoredCredential struct {
	ID         string
	UserID     int64
	Name       string
	Credential webauthn.Credential
}

// Save stores a new passkey credential for the user.
func (s *PasskeyStore) Save(ctx context.Context, userID int64, name string, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}

	id := fmt.Sprintf("%x", cred.ID)
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO passkey_credentials (id, user_id, name, credential_json) VALUES (?, ?, ?, ?)",
		id, userID, name, string(data),
	); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}

	return nil
}

// ListByUser returns all credentials registered by the user.
func (s *PasskeyStore) ListByUser(ctx context.Context, userID int64) ([]StoredCredential, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, name, credential_json FROM passkey_credentials WHERE user_id = ? ORDER BY created_at",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("closing rows", "err", err)
		}
	}()

	var result []StoredCredential
	for rows.Next() {
		var sc StoredCredential
		var data string
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.Name, &data); err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &sc.Credential); err != nil {
			return nil, fmt.Errorf("unmarshaling credential: %w", err)
		}
		result = append(result, sc)
	}

	return result, rows.Err()
}

// WebAuthnCredentials returns just the webauthn.Credential slice for the user.
func (s *PasskeyStore) WebAuthnCredentials(ctx context.Context, userID int64) ([]webauthn.Credential, error) {
	stored, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	creds := make([]webauthn.Credential, len(stored))
	for i, sc := range stored {
		creds[i] = sc.Credential
	}

	return creds, nil
}

// Delete removes one of the user's credentials.
func (s *PasskeyStore) Delete(ctx context.Context, id string, userID int64) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM passkey_credentials WHERE id = ? AND user_id = ?",
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return ErrCredentialNotFound
	}

	return nil
}
