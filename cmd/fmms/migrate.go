package main

import (
	"fmt"

	"github.com/fsg1/fmms/bootstrap"
	"github.com/fsg1/fmms/config"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Create or upgrade the database schema and exit.

Examples:
  fmms migrate
  FMMS_DATABASE_DRIVER=postgres FMMS_DATABASE_DSN=postgres://fmms@db/fmms fmms migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	applied, err := bootstrap.Migrate(cmd.Context(), cfg.Database)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	out := cmd.OutOrStdout()
	switch {
	case cfg.Database.Driver != "sqlite":
		fmt.Fprintf(out, "%s schema is up to date\n", cfg.Database.Driver)
	case len(applied) == 0:
		fmt.Fprintln(out, "No pending migrations")
	default:
		for _, name := range applied {
			fmt.Fprintf(out, "  %s %s\n", checkMark, name)
		}
		fmt.Fprintf(out, "Applied %d migration(s)\n", len(applied))
	}
	return nil
}
