// Package auth provides accounts, password and passkey sign-in, and
// cookie sessions for bienesraices.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrUserNotFound  = errors.New("user not found")
	ErrNotConfirmed  = errors.New("account not confirmed")
	ErrWrongPassword = errors.New("wrong password")
	ErrInvalidToken  = errors.New("invalid confirmation token")
)

// User is a registered account. The password hash never leaves this package
// in JSON.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nombre"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Confirmed    bool      `json:"confirmado"`
	Token        string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ActorID identifies the user to the access guard.
func (u *User) ActorID() int64 { return u.ID }

// IsNil lets the access guard treat a typed nil *User as anonymous.
func (u *User) IsNil() bool { return u == nil }

// UserStore manages accounts in SQLite.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = "id, name, email, password, COALESCE(token, ''), confirmed, created_at"

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Token, &u.Confirmed, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Register creates an unconfirmed account with a fresh confirmation token.
func (s *UserStore) Register(ctx context.Context, name, email, password string) (*User, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}
	return s.create(ctx, name, email, password, token, false)
}

// CreateConfirmed creates an account that can sign in immediately.
func (s *UserStore) CreateConfirmed(ctx context.Context, name, email, password string) (*User, error) {
	return s.create(ctx, name, email, password, "", true)
}

func (s *UserStore) create(ctx context.Context, name, email, password, token string, confirmed bool) (*User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	var tok interface{}
	if token != "" {
		tok = token
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password, token, confirmed) VALUES (?, ?, ?, ?, ?)",
		name, email, hash, tok, confirmed,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user ID: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID returns a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// GetByEmail returns a user by email, case-insensitively.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", normalizeEmail(email))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// Confirm exchanges a one-time token for a confirmed account. The token is
// cleared so it cannot be used again.
func (s *UserStore) Confirm(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE token = ?", token)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("querying token: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE users SET token = NULL, confirmed = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?", u.ID,
	); err != nil {
		return nil, fmt.Errorf("confirming user: %w", err)
	}

	u.Token = ""
	u.Confirmed = true
	return u, nil
}

// Authenticate checks an email and password pair. The returned error tells
// the caller which check failed.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !u.Confirmed {
		return nil, ErrNotConfirmed
	}
	if !CheckPassword(password, u.PasswordHash) {
		return nil, ErrWrongPassword
	}
	return u, nil
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
