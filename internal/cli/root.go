// Package cli defines the cobra command tree for bienesraices.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/bienesraices/internal/client"
	"github.com/evcraddock/bienesraices/internal/db"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "br",
		Short:         "Bienes Raíces property listings",
		Long:          "Run the Bienes Raíces listing site, manage its database, and browse the public catalog from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: BR_DB or "+db.DefaultPath+")")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newCatalogCmd(),
		newUseCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// dbPath returns the --db flag, then BR_DB, then the default path.
func dbPath() string {
	if flagDB != "" {
		return flagDB
	}
	if v := os.Getenv("BR_DB"); v != "" {
		return v
	}
	return db.DefaultPath
}

// connectDB opens the database without touching the schema.
func connectDB() (*sql.DB, error) {
	return db.Connect(dbPath())
}

// openDB opens the database and applies pending migrations.
func openDB() (*sql.DB, error) {
	return db.Open(dbPath())
}

func newAPIClient() *client.Client {
	return client.New(getServerURL())
}

func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
