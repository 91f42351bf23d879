// Package cmd defines the CLI commands for the harvester executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jobscope/harvester/internal/app"
	"github.com/jobscope/harvester/pkg/config"
)

var cfgFile string

// appKeyType keys the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// newRootCmd creates and configures the root command. Services are built in
// PersistentPreRunE so every subcommand sees an initialized App, and torn
// down in PersistentPostRun.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvester",
		Short: "Incremental harvester for job postings, company profiles, and cover letters",
		Long: `harvester crawls job postings, company profiles, and accepted-applicant
cover letters into a document store. A shared visitation log keeps repeated
runs incremental: create mode skips everything already logged, update mode
re-fetches exactly the logged set.`,

		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize services: %w", err)
			}
			a.ServeOps()

			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey).(*app.App); ok && a != nil {
				if err := a.Close(context.Background()); err != nil {
					fmt.Fprintln(os.Stderr, "shutdown:", err)
				}
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is harvester.yaml discovery via env)")

	cmd.AddCommand(newCrawlCmd())
	return cmd
}

// resolveApp pulls the App injected by the root command.
func resolveApp(ctx context.Context) (*app.App, error) {
	a, ok := ctx.Value(appKey).(*app.App)
	if !ok || a == nil {
		return nil, errors.New("application services not initialized")
	}
	return a, nil
}

// Execute is the entry point. Interrupts cancel the command context so a
// crawl stops at the next item boundary instead of mid-write.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "harvester:", err)
		os.Exit(1)
	}
}
