package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPool_EachItemClaimedExactlyOnce(t *testing.T) {
	t.Parallel()

	const items = 100
	var mu sync.Mutex
	seen := make(map[int]int)

	Pool{Workers: 5}.Run(context.Background(), items, func(_ context.Context, i int) {
		mu.Lock()
		seen[i]++
		mu.Unlock()
	})

	require.Len(t, seen, items)
	for i, count := range seen {
		require.Equalf(t, 1, count, "item %d claimed %d times", i, count)
	}
}

func TestPool_ConcurrencyNeverExceedsWorkers(t *testing.T) {
	t.Parallel()

	var active, peak atomic.Int64

	Pool{Workers: 3}.Run(context.Background(), 30, func(_ context.Context, _ int) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
	})

	require.LessOrEqual(t, peak.Load(), int64(3))
	require.Positive(t, peak.Load())
}

func TestPool_WorkersClampedToItems(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	Pool{Workers: 10}.Run(context.Background(), 2, func(_ context.Context, _ int) {
		calls.Add(1)
	})
	require.Equal(t, int64(2), calls.Load())
}

func TestPool_RunIsJoinAll(t *testing.T) {
	t.Parallel()

	var done atomic.Int64
	Pool{Workers: 4}.Run(context.Background(), 20, func(_ context.Context, _ int) {
		time.Sleep(time.Millisecond)
		done.Add(1)
	})
	// Run must not return before every item finished.
	require.Equal(t, int64(20), done.Load())
}

func TestPool_DelayAppliedAfterFirstItemPerWorker(t *testing.T) {
	t.Parallel()

	const items = 4
	start := time.Now()
	Pool{Workers: 1, Delay: 20 * time.Millisecond}.Run(context.Background(), items, func(_ context.Context, _ int) {})
	elapsed := time.Since(start)

	// One worker, four items: three inter-item delays, none before the first.
	require.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	require.Less(t, elapsed, 200*time.Millisecond)
}

func TestPool_CancelStopsClaiming(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int64

	Pool{Workers: 1}.Run(ctx, 50, func(_ context.Context, i int) {
		calls.Add(1)
		if i == 4 {
			cancel()
		}
	})

	require.Less(t, calls.Load(), int64(50))
}

func TestPool_ZeroItemsReturnsImmediately(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	go func() {
		Pool{Workers: 5}.Run(context.Background(), 0, func(_ context.Context, _ int) {
			t.Error("fn must not be called for zero items")
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return for zero items")
	}
}
