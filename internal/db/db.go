// Package db provides SQLite database initialization and schema management.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "./data/bienesraices.db"

// Connect opens (or creates) a SQLite database at the given path with
// WAL mode, foreign keys and a busy timeout set on every pooled connection.
// It does not touch the schema.
func Connect(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, closeOnErr(db, fmt.Errorf("pinging database: %w", err))
	}

	return db, nil
}

// Open connects to the database and applies pending migrations.
func Open(path string) (*sql.DB, error) {
	db, err := Connect(path)
	if err != nil {
		return nil, err
	}

	if err := Migrate(context.Background(), db); err != nil {
		return nil, closeOnErr(db, fmt.Errorf("running migrations: %w", err))
	}

	return db, nil
}

func closeOnErr(db *sql.DB, err error) error {
	if closeErr := db.Close(); closeErr != nil {
		return fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
	}
	return err
}
