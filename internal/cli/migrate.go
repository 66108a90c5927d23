package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/bienesraices/internal/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				database, err := connectDB()
				if err != nil {
					return err
				}
				defer closeDB(database)

				if err := db.Status(cmd.Context(), database); err != nil {
					return err
				}
				return printVersion(cmd, database)
			},
		},
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				database, err := connectDB()
				if err != nil {
					return err
				}
				defer closeDB(database)

				if err := db.Migrate(cmd.Context(), database); err != nil {
					return err
				}
				return printVersion(cmd, database)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				database, err := connectDB()
				if err != nil {
					return err
				}
				defer closeDB(database)

				if err := db.Down(cmd.Context(), database); err != nil {
					return err
				}
				return printVersion(cmd, database)
			},
		},
	)

	return cmd
}

func printVersion(cmd *cobra.Command, database *sql.DB) error {
	v, err := db.Version(cmd.Context(), database)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d\n", v)
	return err
}
