package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/hoverlabel/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the feedback database and show its schema version",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	// Opening the database applies any pending migrations.
	db, err := database.NewDB(database.Config{SQLitePath: cfg.DBPath})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	applied, err := database.NewMigrator(db.Conn()).GetAppliedMigrations()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database: %s\n", db.Path())
	for _, m := range database.Migrations() {
		status := "pending"
		if applied[m.Version] {
			status = "applied"
		}
		fmt.Fprintf(out, "  %s_%s: %s\n", m.Version, m.Name, status)
	}
	return nil
}
