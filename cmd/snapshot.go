package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/pagevault/internal/app"
	"github.com/JakeFAU/pagevault/internal/config"
	"github.com/JakeFAU/pagevault/internal/logging"
	"github.com/JakeFAU/pagevault/internal/pipeline"
	"github.com/JakeFAU/pagevault/internal/snapshot"
)

// closeTimeout bounds service teardown after a run finishes.
const closeTimeout = 10 * time.Second

var (
	inputPath  string
	outputRoot string
)

// newSnapshotCmd creates and configures the 'snapshot' subcommand. It runs
// one full pass over the configured URL list.
func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Runs one snapshot pass over the configured URL list",
		Long: `Reads the URL list, skips every URL already present in the index, and
captures the rest one at a time. Interrupting the run finishes the URL in
flight, flushes state, and exits cleanly; the next run picks up the
remainder.`,
		RunE: runSnapshotCommand,
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "URL list file (overrides input.path)")
	cmd.Flags().StringVar(&outputRoot, "output", "", "artifact tree root (overrides output.root)")
	return cmd
}

func runSnapshotCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if inputPath != "" {
		cfg.Input.Path = inputPath
	}
	if outputRoot != "" {
		cfg.Output.Root = outputRoot
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	urls, err := snapshot.LoadURLList(cfg.Input.Path)
	if err != nil {
		return fmt.Errorf("load url list: %w", err)
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application services: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		application.Close(closeCtx)
	}()

	summary, err := application.Run(ctx, urls)
	if err != nil {
		return fmt.Errorf("snapshot run: %w", err)
	}

	printSummary(cmd.OutOrStdout(), summary)
	return nil
}

// printSummary writes the human-readable run report. The structured logs
// carry the same numbers for machines.
func printSummary(w io.Writer, sum pipeline.Summary) {
	fmt.Fprintf(w, "\nrun %s finished in %s\n", sum.RunID, sum.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  urls:          %d\n", sum.TotalURLs)
	fmt.Fprintf(w, "  already saved: %d\n", sum.AlreadySaved)
	fmt.Fprintf(w, "  processed:     %d\n", sum.Processed)
	fmt.Fprintf(w, "  succeeded:     %d\n", sum.Succeeded)
	fmt.Fprintf(w, "  failed:        %d\n", sum.Failed)
	if sum.Interrupted {
		fmt.Fprintln(w, "  interrupted; rerun the same command to resume")
	}
}
