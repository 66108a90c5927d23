package lookup

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/evcraddock/bienesraices/internal/db"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	if err := db.SeedReference(context.Background(), d); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewRepository(d)
}

func TestCategoriesAndPrices(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	cats, err := r.Categories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) != len(db.Categories) {
		t.Fatalf("got %d categories, want %d", len(cats), len(db.Categories))
	}
	if cats[0].ID != 1 || cats[0].Name != "Casa" {
		t.Errorf("first category = %+v", cats[0])
	}

	prices, err := r.Prices(ctx)
	if err != nil {
		t.Fatalf("prices: %v", err)
	}
	if len(prices) != len(db.Prices) {
		t.Errorf("got %d prices, want %d", len(prices), len(db.Prices))
	}
}

func TestCategoryByID(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	c, err := r.Category(ctx, 2)
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if c.Name != "Departamento" {
		t.Errorf("name = %q", c.Name)
	}

	if _, err := r.Category(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	p, err := r.Price(ctx, 10)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if p.Name != "+ $500,000 USD" {
		t.Errorf("price name = %q", p.Name)
	}
	if _, err := r.Price(ctx, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
