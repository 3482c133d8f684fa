// Package worker implements the pull-based pool that drives the
// scrape and audit pipelines.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Pool fans a fixed number of workers over an indexed set of items.
// Each worker loops claiming the next index by atomic fetch-and-
// increment, so every item is executed exactly once and a slow item
// never blocks the others. Run returns only after all workers have
// drained the index.
type Pool struct {
	// Workers is the number of concurrent workers. It is clamped to
	// the item count; values below 1 run a single worker.
	Workers int

	// Delay, when set, is applied by each worker before every item
	// after its first. Used by the audit runner to throttle a paid
	// external API without reducing overall concurrency.
	Delay time.Duration
}

// Run executes fn(ctx, i) for every i in [0, items). Per-item errors
// are fn's problem; the pool itself never aborts early except on
// context cancellation, in which case unclaimed items are skipped.
func (p Pool) Run(ctx context.Context, items int, fn func(ctx context.Context, i int)) {
	if items <= 0 {
		return
	}
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > items {
		workers = items
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first := true
			for {
				i := int(next.Add(1)) - 1
				if i >= items {
					return
				}
				if ctx.Err() != nil {
					return
				}
				if !first && p.Delay > 0 {
					if !sleep(ctx, p.Delay) {
						return
					}
				}
				first = false
				fn(ctx, i)
			}
		}()
	}
	wg.Wait()
}

// sleep waits for d or until ctx is done, reporting whether the full
// delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
