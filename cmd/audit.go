package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foghornhq/foghorn/internal/audit"
	"github.com/foghornhq/foghorn/internal/metrics"
)

func newAuditCmd() *cobra.Command {
	var (
		limit       int
		concurrency int
		delay       int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run external audits on pages",
		Long: `Fetches a fresh audit report for each page from the external audit
API and stores the normalized result. Pages that have never been
audited, or were audited longest ago, go first. Each worker waits
between requests to stay inside the API's rate limits.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			metrics.Init()

			if limit <= 0 {
				limit = cfg.Audit.Limit
			}
			if concurrency <= 0 {
				concurrency = cfg.Audit.Concurrency
			}
			pause := time.Duration(delay) * time.Second
			if delay < 0 {
				pause = cfg.AuditDelay()
			}

			pg, err := connectStore(ctx)
			if err != nil {
				return err
			}
			defer pg.Close()
			stores := pg.Stores()

			pages, err := stores.Pages.All(ctx)
			if err != nil {
				return err
			}
			audit.SortByLastAudited(pages)
			if len(pages) > limit {
				pages = pages[:limit]
			}
			if len(pages) == 0 {
				logger.Info("no pages to audit")
				return nil
			}

			logger.Info("starting audit run",
				zap.Int("pages", len(pages)),
				zap.Int("concurrency", concurrency),
				zap.Duration("delay", pause),
			)

			client := &audit.Client{
				Endpoint: cfg.Audit.Endpoint,
				APIKey:   cfg.Audit.APIKey,
			}
			auditor := audit.NewAuditor(stores.Pages, client, logger)
			auditor.Run(ctx, pages, concurrency, pause)

			logger.Info("audit run finished")
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of pages to audit (default from config)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers, capped at 5 (default from config)")
	cmd.Flags().IntVar(&delay, "delay", -1, "delay in seconds between audits per worker (default from config)")

	return cmd
}
