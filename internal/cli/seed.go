package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/bienesraices/internal/auth"
	"github.com/evcraddock/bienesraices/internal/db"
)

// Demo account created by seed --import.
const (
	demoName     = "Marcos"
	demoEmail    = "marcos@correo.com"
	demoPassword = "123456"
)

func newSeedCmd() *cobra.Command {
	var doImport, wipe bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load or remove sample data",
		Long:  "--import loads categories, price tiers and a confirmed demo account. --wipe drops every row by rebuilding the schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if doImport == wipe {
				return errors.New("use exactly one of --import or --wipe")
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			if wipe {
				return runWipe(cmd.Context(), database, cmd.OutOrStdout())
			}
			return runImport(cmd.Context(), database, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&doImport, "import", "i", false, "insert reference data and the demo account")
	cmd.Flags().BoolVarP(&wipe, "wipe", "e", false, "delete all data")

	return cmd
}

func runImport(ctx context.Context, database *sql.DB, out io.Writer) error {
	if err := db.SeedReference(ctx, database); err != nil {
		return err
	}

	_, err := auth.NewUserStore(database).CreateConfirmed(ctx, demoName, demoEmail, demoPassword)
	if err != nil && !errors.Is(err, auth.ErrEmailTaken) {
		return fmt.Errorf("creating demo account: %w", err)
	}

	_, err = fmt.Fprintf(out, "Imported %d categories, %d price tiers and user %s\n",
		len(db.Categories), len(db.Prices), demoEmail)
	return err
}

func runWipe(ctx context.Context, database *sql.DB, out io.Writer) error {
	if err := db.Reset(ctx, database); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, "All data deleted")
	return err
}
