package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fmms",
	Short: "Faculty module management service",
	Long: `fmms serves curriculum overviews per study programme and stores
module edits as one transaction each.

Quick start:
  fmms migrate      # Create or upgrade the database schema
  fmms serve        # Start the HTTP server

Tools:
  fmms plan         # Show the writes a module edit would perform
  fmms validate     # Validate configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "fmms.yaml", "config file path")
}
