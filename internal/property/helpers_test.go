package property

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/evcraddock/bienesraices/internal/db"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("closing db: %v", err)
		}
	})
	if err := db.SeedReference(context.Background(), d); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	return d
}

func insertUser(t *testing.T, d *sql.DB, email string) int64 {
	t.Helper()
	res, err := d.Exec("INSERT INTO users (name, email, password, confirmed) VALUES (?, ?, 'x', 1)", email, email)
	if err != nil {
		t.Fatalf("inserting user: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	return id
}

func sampleProperty(owner int64, title string) *Property {
	return &Property{
		Title:       title,
		Description: "Casa con jardín",
		Bedrooms:    3,
		Parking:     1,
		Bathrooms:   2,
		Street:      "Av. Mitre 123",
		Lat:         "-27.368532",
		Lng:         "-55.897119",
		UserID:      owner,
		CategoryID:  1,
		PriceID:     2,
	}
}

func validForm() Form {
	return Form{
		Title:       "Casa en el centro",
		Description: "Amplia casa con patio",
		Category:    "1",
		Price:       "3",
		Bedrooms:    "3",
		Parking:     "2",
		Bathrooms:   "1",
		Street:      "Calle 1",
		Lat:         "-27.36",
		Lng:         "-55.89",
	}
}

type actor int64

func (a actor) ActorID() int64 { return int64(a) }

// memImages is an in-memory Images implementation.
type memImages struct {
	mu        sync.Mutex
	files     map[string][]byte
	n         int
	saveErr   error
	removeErr error
}

func newMemImages() *memImages {
	return &memImages{files: map[string][]byte{}}
}

func (m *memImages) Save(src io.Reader, filename string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", m.saveErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, src); err != nil {
		return "", err
	}
	m.n++
	name := fmt.Sprintf("img-%d%s", m.n, filepath.Ext(filename))
	m.files[name] = buf.Bytes()
	return name, nil
}

func (m *memImages) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.files, name)
	return nil
}

func (m *memImages) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok
}

var errDisk = errors.New("disk unavailable")
