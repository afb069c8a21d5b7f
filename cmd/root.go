// Package cmd defines and implements the CLI commands for the pagevault
// executable.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagevault",
		Short: "Captures durable snapshots of web pages and documents.",
		Long: `pagevault reads a JSON list of URLs and captures a snapshot of each one:
a rendered screenshot, the serialized DOM, and the visible text for web
pages; the original file plus extracted text for PDF and Word documents.
Finished URLs are recorded in a persisted index, so an interrupted run
resumes where it left off.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., /etc/pagevault, $HOME/.pagevault)")
	cmd.AddCommand(newSnapshotCmd())

	return cmd
}

// Execute is the main entry point. Cobra already reports the failure, so
// only the exit code is left to set.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
