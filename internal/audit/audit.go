// Package audit fetches external performance reports for pages and
// persists each attempt's outcome.
package audit

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/foghornhq/foghorn/internal/config"
	"github.com/foghornhq/foghorn/internal/metrics"
	"github.com/foghornhq/foghorn/internal/model"
	"github.com/foghornhq/foghorn/internal/store"
	"github.com/foghornhq/foghorn/internal/worker"
)

// Fetcher produces an audit report for a page URL. Satisfied by
// *Client.
type Fetcher interface {
	Audit(ctx context.Context, pageURL string) (*model.AuditReport, error)
}

// Auditor runs audits over stored pages.
type Auditor struct {
	Pages  store.PageStore
	Client Fetcher
	Logger *zap.Logger

	now func() time.Time
}

// NewAuditor builds an Auditor over the given page store and fetcher.
func NewAuditor(pages store.PageStore, client Fetcher, logger *zap.Logger) *Auditor {
	return &Auditor{
		Pages:  pages,
		Client: client,
		Logger: logger,
		now:    time.Now,
	}
}

// AuditPage fetches a fresh report for the page. On success the
// report is replaced wholesale and any prior error cleared; on
// failure the error message is recorded and the previous report is
// left in place. The attempt timestamp is stamped either way.
func (a *Auditor) AuditPage(ctx context.Context, page *model.Page) error {
	report, err := a.Client.Audit(ctx, page.URL)
	now := a.now().UTC()
	page.LastAuditedAt = &now
	if err != nil {
		msg := err.Error()
		page.AuditError = &msg
	} else {
		page.AuditReport = report
		page.AuditError = nil
	}
	if saveErr := a.Pages.Save(ctx, page); saveErr != nil {
		a.Logger.Error("persist audit outcome",
			zap.String("page_id", page.ID),
			zap.Error(saveErr),
		)
		if err == nil {
			return saveErr
		}
	}
	return err
}

// Run audits the given pages with a pull-based worker pool. Each
// worker pauses for delay between its items to throttle the external
// API. Concurrency is capped at the shared worker ceiling.
func (a *Auditor) Run(ctx context.Context, pages []*model.Page, concurrency int, delay time.Duration) {
	if concurrency > config.MaxWorkerConcurrency {
		concurrency = config.MaxWorkerConcurrency
	}
	pool := worker.Pool{Workers: concurrency, Delay: delay}
	pool.Run(ctx, len(pages), func(ctx context.Context, i int) {
		page := pages[i]
		start := time.Now()
		err := a.AuditPage(ctx, page)
		elapsed := time.Since(start)
		if err != nil {
			metrics.ObserveAudit("error", elapsed)
			a.Logger.Warn("audit failed",
				zap.String("page_id", page.ID),
				zap.String("url", page.URL),
				zap.Error(err),
			)
			return
		}
		metrics.ObserveAudit("ok", elapsed)
		a.Logger.Info("audit complete",
			zap.String("page_id", page.ID),
			zap.String("url", page.URL),
			zap.Int64("duration_ms", page.AuditReport.DurationMs),
		)
	})
}

// SortByLastAudited orders pages for an audit run: never-audited
// pages first, then oldest attempt first. Stable for equal stamps.
func SortByLastAudited(pages []*model.Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i].LastAuditedAt, pages[j].LastAuditedAt
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
