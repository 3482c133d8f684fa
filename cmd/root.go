// Package cmd defines the CLI commands for the foghorn executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foghornhq/foghorn/internal/config"
	"github.com/foghornhq/foghorn/internal/logging"
	"github.com/foghornhq/foghorn/internal/store"
)

var (
	cfgFile string

	cfg    config.Config
	logger *zap.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "foghorn",
		Short: "Website monitoring service",
		Long: `foghorn watches registered sites: it discovers pages from their
sitemaps, audits each page against an external performance API, and
serves the aggregated results over HTTP.`,

		SilenceUsage: true,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err = logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)
			return nil
		},

		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newAuditCmd())

	return cmd
}

// connectStore opens the Postgres-backed document store.
func connectStore(ctx context.Context) (*store.Postgres, error) {
	pg, err := store.NewPostgres(ctx, store.PostgresConfig{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	return pg, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
