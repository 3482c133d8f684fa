// Package scrape reconciles a site's sitemap against its stored pages.
package scrape

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/foghornhq/foghorn/internal/config"
	"github.com/foghornhq/foghorn/internal/metrics"
	"github.com/foghornhq/foghorn/internal/model"
	"github.com/foghornhq/foghorn/internal/store"
	"github.com/foghornhq/foghorn/internal/worker"
)

// Resolver yields the page URLs behind a sitemap URL. Satisfied by
// sitemap.Resolver.
type Resolver interface {
	Fetch(ctx context.Context, url string, depth int) ([]string, error)
}

// Scraper discovers pages for sites and records each attempt's
// outcome on the site document.
type Scraper struct {
	Sites    store.SiteStore
	Pages    store.PageStore
	Resolver Resolver
	Logger   *zap.Logger

	now func() time.Time
}

// New builds a Scraper over the given stores and resolver.
func New(sites store.SiteStore, pages store.PageStore, resolver Resolver, logger *zap.Logger) *Scraper {
	return &Scraper{
		Sites:    sites,
		Pages:    pages,
		Resolver: resolver,
		Logger:   logger,
		now:      time.Now,
	}
}

// ScrapeSite resolves the site's sitemap and creates page documents
// for URLs not yet tracked, up to maxPages total pages per site.
// The attempt timestamp is stamped on the site whether the resolve
// succeeds or fails; the error field mirrors the latest outcome.
// Returns the number of pages created.
func (s *Scraper) ScrapeSite(ctx context.Context, site *model.Site, maxPages int) (int, error) {
	urls, err := s.Resolver.Fetch(ctx, site.SitemapURL(), 0)
	if err != nil {
		s.recordOutcome(ctx, site, err)
		return 0, err
	}

	existing, err := s.Pages.BySite(ctx, site.ID)
	if err != nil {
		s.recordOutcome(ctx, site, err)
		return 0, fmt.Errorf("list pages for site %s: %w", site.ID, err)
	}

	remaining := maxPages - len(existing)
	if remaining < 0 {
		remaining = 0
	}
	// The budget window is cut from the head of the sitemap before
	// dedup, so a URL whose path already exists still consumes a slot.
	if remaining < len(urls) {
		urls = urls[:remaining]
	}

	seen := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		seen[p.Path] = struct{}{}
	}

	created := 0
	for _, u := range urls {
		path, ok := pagePath(u)
		if !ok {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		page := &model.Page{SiteID: site.ID, Path: path, URL: u}
		if err := s.Pages.Create(ctx, page); err != nil {
			s.recordOutcome(ctx, site, err)
			return created, fmt.Errorf("create page %s: %w", path, err)
		}
		seen[path] = struct{}{}
		created++
	}

	s.recordOutcome(ctx, site, nil)
	return created, nil
}

// recordOutcome stamps the attempt time and sets or clears the error
// on the site. Persistence failures here are logged, not returned:
// the scrape outcome itself already determines the caller's error.
func (s *Scraper) recordOutcome(ctx context.Context, site *model.Site, outcome error) {
	now := s.now().UTC()
	site.LastScrapedSitemapAt = &now
	if outcome != nil {
		msg := outcome.Error()
		site.ScrapeSitemapError = &msg
	} else {
		site.ScrapeSitemapError = nil
	}
	if err := s.Sites.Save(ctx, site); err != nil {
		s.Logger.Error("persist scrape outcome",
			zap.String("site_id", site.ID),
			zap.Error(err),
		)
	}
}

// Run scrapes the given sites with a pull-based worker pool. Per-site
// failures are recorded on the site and logged; Run itself only
// returns after every worker has drained. Concurrency is capped at
// the shared worker ceiling.
func (s *Scraper) Run(ctx context.Context, sites []*model.Site, maxPages, concurrency int) {
	if concurrency > config.MaxWorkerConcurrency {
		concurrency = config.MaxWorkerConcurrency
	}
	pool := worker.Pool{Workers: concurrency}
	pool.Run(ctx, len(sites), func(ctx context.Context, i int) {
		site := sites[i]
		created, err := s.ScrapeSite(ctx, site, maxPages)
		if err != nil {
			metrics.ObserveScrape("error")
			s.Logger.Warn("scrape failed",
				zap.String("site_id", site.ID),
				zap.String("domain", site.Domain),
				zap.Error(err),
			)
			return
		}
		metrics.ObserveScrape("ok")
		metrics.AddPagesCreated(created)
		s.Logger.Info("scrape complete",
			zap.String("site_id", site.ID),
			zap.String("domain", site.Domain),
			zap.Int("pages_created", created),
		)
	})
}

// SortByLastScraped orders sites for a scrape run: never-scraped
// sites first, then oldest attempt first. The sort is stable so
// equal timestamps keep their stored order.
func SortByLastScraped(sites []*model.Site) {
	sort.SliceStable(sites, func(i, j int) bool {
		a, b := sites[i].LastScrapedSitemapAt, sites[j].LastScrapedSitemapAt
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
}

// pagePath extracts the canonical path for dedup. URLs that do not
// parse are skipped rather than failing the whole site.
func pagePath(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return path, true
}
