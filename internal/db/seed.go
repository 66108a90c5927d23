package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Categories are the property categories loaded by SeedReference.
var Categories = []string{
	"Casa",
	"Departamento",
	"Bodega",
	"Terreno",
	"Cabaña",
}

// Prices are the price tiers loaded by SeedReference.
var Prices = []string{
	"0 - $10,000 USD",
	"$10,000 - $30,000 USD",
	"$30,000 - $50,000 USD",
	"$50,000 - $75,000 USD",
	"$75,000 - $100,000 USD",
	"$100,000 - $150,000 USD",
	"$150,000 - $200,000 USD",
	"$200,000 - $300,000 USD",
	"$300,000 - $500,000 USD",
	"+ $500,000 USD",
}

// SeedReference inserts categories and price tiers. Rows that already exist
// are left alone, so seeding twice is harmless.
func SeedReference(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, name := range Categories {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO categories (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("seeding category %q: %w", name, err)
		}
	}
	for _, name := range Prices {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO prices (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("seeding price %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}
	return nil
}
