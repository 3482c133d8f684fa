package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foghornhq/foghorn/internal/metrics"
	"github.com/foghornhq/foghorn/internal/scrape"
	"github.com/foghornhq/foghorn/internal/sitemap"
)

func newScrapeCmd() *cobra.Command {
	var limit, concurrency int

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Discover pages from site sitemaps",
		Long: `Fetches each site's sitemap, resolving nested sitemap indexes, and
creates page records for newly discovered URLs. Sites that have never
been scraped, or were scraped longest ago, go first.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			metrics.Init()

			if limit <= 0 {
				limit = cfg.Scrape.Limit
			}
			if concurrency <= 0 {
				concurrency = cfg.Scrape.Concurrency
			}

			pg, err := connectStore(ctx)
			if err != nil {
				return err
			}
			defer pg.Close()
			stores := pg.Stores()

			sites, err := stores.Sites.All(ctx)
			if err != nil {
				return err
			}
			scrape.SortByLastScraped(sites)
			if len(sites) > limit {
				sites = sites[:limit]
			}
			if len(sites) == 0 {
				logger.Info("no sites to scrape")
				return nil
			}

			logger.Info("starting scrape run",
				zap.Int("sites", len(sites)),
				zap.Int("concurrency", concurrency),
			)

			scraper := scrape.New(stores.Sites, stores.Pages, sitemap.New(), logger)
			scraper.Run(ctx, sites, cfg.Scrape.MaxPages, concurrency)

			logger.Info("scrape run finished")
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of sites to scrape (default from config)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")

	return cmd
}
