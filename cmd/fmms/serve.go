package main

import (
	"fmt"
	"os"

	"github.com/fsg1/fmms/bootstrap"
	"github.com/fsg1/fmms/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the fmms HTTP server.

The server will:
  - Load configuration from fmms.yaml (or --config)
  - Or load configuration from FMMS_* environment variables
  - Connect to the database and apply pending migrations
  - Serve the curriculum and module endpoints under server.base_path

Environment variables (for Docker deployments):
  FMMS_DATABASE_DRIVER   - sqlite or postgres (default: sqlite)
  FMMS_DATABASE_DSN      - Database path or URL (default: fmms.db)
  FMMS_SERVER_PORT       - Server port (default: 8080)
  FMMS_BASE_PATH         - Route prefix (default: /fmms)
  FMMS_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  fmms serve
  fmms serve --config /etc/fmms/config.yaml

  # Docker (env vars only):
  FMMS_DATABASE_DRIVER=postgres FMMS_DATABASE_DSN=postgres://fmms@db/fmms fmms serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); err != nil {
		if config.HasEnvConfig() {
			fmt.Fprintln(cmd.OutOrStdout(), "Running with environment variables (no config file)")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s found, running with defaults\n", cfgFile)
		}
	}

	app, err := bootstrap.New(cmd.Context(), bootstrap.Options{ConfigPath: cfgFile})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run(cmd.Context())
}
