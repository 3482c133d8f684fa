package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foghornhq/foghorn/internal/config"
	"github.com/foghornhq/foghorn/internal/metrics"
	"github.com/foghornhq/foghorn/internal/model"
	"github.com/foghornhq/foghorn/internal/store"
)

type stubFetcher struct {
	report *model.AuditReport
	err    error
}

func (s *stubFetcher) Audit(_ context.Context, _ string) (*model.AuditReport, error) {
	return s.report, s.err
}

func score(v float64) *float64 { return &v }

func sampleReport() *model.AuditReport {
	return &model.AuditReport{
		FetchTime:  "2026-03-01T10:00:00.000Z",
		FinalURL:   "https://example.com/",
		DurationMs: 1500,
		Performance: model.CategoryResult{
			Score:  score(0.9),
			Audits: []model.AuditResult{},
		},
	}
}

func newPage(t *testing.T, pages store.PageStore) *model.Page {
	t.Helper()
	page := &model.Page{SiteID: "site-1", Path: "/", URL: "https://example.com/"}
	require.NoError(t, pages.Create(context.Background(), page))
	return page
}

func TestAuditPageSuccessReplacesReport(t *testing.T) {
	t.Parallel()

	stores := store.NewMemory().Stores()
	page := newPage(t, stores.Pages)

	msg := "HTTP 500 auditing https://example.com/"
	page.AuditError = &msg
	require.NoError(t, stores.Pages.Save(context.Background(), page))

	a := NewAuditor(stores.Pages, &stubFetcher{report: sampleReport()}, zap.NewNop())
	require.NoError(t, a.AuditPage(context.Background(), page))

	saved, err := stores.Pages.Find(context.Background(), page.ID)
	require.NoError(t, err)
	require.NotNil(t, saved.AuditReport)
	require.Equal(t, "https://example.com/", saved.AuditReport.FinalURL)
	require.Nil(t, saved.AuditError)
	require.NotNil(t, saved.LastAuditedAt)
}

func TestAuditPageFailureKeepsPriorReport(t *testing.T) {
	t.Parallel()

	stores := store.NewMemory().Stores()
	page := newPage(t, stores.Pages)

	page.AuditReport = sampleReport()
	require.NoError(t, stores.Pages.Save(context.Background(), page))

	a := NewAuditor(stores.Pages, &stubFetcher{err: errors.New("timeout auditing https://example.com/")}, zap.NewNop())
	err := a.AuditPage(context.Background(), page)
	require.Error(t, err)

	saved, findErr := stores.Pages.Find(context.Background(), page.ID)
	require.NoError(t, findErr)
	require.NotNil(t, saved.AuditReport, "a failed attempt must not drop the last good report")
	require.NotNil(t, saved.AuditError)
	require.Contains(t, *saved.AuditError, "timeout auditing")
	require.NotNil(t, saved.LastAuditedAt)
}

func TestRunAuditsEveryPage(t *testing.T) {
	t.Parallel()
	metrics.Init()

	stores := store.NewMemory().Stores()
	ctx := context.Background()

	var pages []*model.Page
	for i := 0; i < 6; i++ {
		pages = append(pages, newPage(t, stores.Pages))
	}

	a := NewAuditor(stores.Pages, &stubFetcher{report: sampleReport()}, zap.NewNop())
	a.Run(ctx, pages, 50, 0)

	for _, page := range pages {
		saved, err := stores.Pages.Find(ctx, page.ID)
		require.NoError(t, err)
		require.NotNil(t, saved.LastAuditedAt)
		require.NotNil(t, saved.AuditReport)
	}
}

// gaugeFetcher counts how many Audit calls are in flight at once.
type gaugeFetcher struct {
	mu     sync.Mutex
	active int
	peak   int
}

func (g *gaugeFetcher) Audit(_ context.Context, _ string) (*model.AuditReport, error) {
	g.mu.Lock()
	g.active++
	if g.active > g.peak {
		g.peak = g.active
	}
	g.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	g.mu.Lock()
	g.active--
	g.mu.Unlock()
	return sampleReport(), nil
}

func TestRunClampsConcurrency(t *testing.T) {
	t.Parallel()
	metrics.Init()

	stores := store.NewMemory().Stores()
	ctx := context.Background()

	var pages []*model.Page
	for i := 0; i < 20; i++ {
		pages = append(pages, newPage(t, stores.Pages))
	}

	fetcher := &gaugeFetcher{}
	a := NewAuditor(stores.Pages, fetcher, zap.NewNop())
	a.Run(ctx, pages, 12, 0)

	require.LessOrEqual(t, fetcher.peak, config.MaxWorkerConcurrency)
}

func TestSortByLastAudited(t *testing.T) {
	t.Parallel()

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	pages := []*model.Page{
		{ID: "recent", LastAuditedAt: &recent},
		{ID: "never-a"},
		{ID: "old", LastAuditedAt: &old},
		{ID: "never-b"},
	}

	SortByLastAudited(pages)

	require.Equal(t, "never-a", pages[0].ID)
	require.Equal(t, "never-b", pages[1].ID)
	require.Equal(t, "old", pages[2].ID)
	require.Equal(t, "recent", pages[3].ID)
}
