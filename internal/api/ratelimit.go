package api

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// rateLimiter is a fixed-window counter keyed by (client IP, window
// bucket). Buckets from past windows are swept lazily on request.
type rateLimiter struct {
	max    int
	window time.Duration

	mu          sync.Mutex
	hits        map[string]int
	lastCleanup time.Time
	now         func() time.Time
}

func newRateLimiter(max int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		max:    max,
		window: window,
		hits:   make(map[string]int),
		now:    time.Now,
	}
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.max <= 0 || rl.window <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		allowed, retryAfter := rl.allow(clientIP(r))
		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			writeError(w, http.StatusTooManyRequests,
				"Too many requests. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow counts a hit for ip in the current window. When the window is
// exhausted it reports the seconds left until the next one opens.
func (rl *rateLimiter) allow(ip string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket := now.UnixMilli() / rl.window.Milliseconds()
	key := fmt.Sprintf("%s:%d", ip, bucket)

	rl.cleanup(now, bucket)

	if rl.hits[key] >= rl.max {
		windowEnd := (bucket + 1) * rl.window.Milliseconds()
		secondsLeft := (windowEnd - now.UnixMilli() + 999) / 1000
		if secondsLeft < 1 {
			secondsLeft = 1
		}
		return false, int(secondsLeft)
	}
	rl.hits[key]++
	return true, 0
}

// cleanup drops keys from buckets older than the current one, at most
// once per window.
func (rl *rateLimiter) cleanup(now time.Time, currentBucket int64) {
	if now.Sub(rl.lastCleanup) < rl.window {
		return
	}
	for key := range rl.hits {
		idx := strings.LastIndex(key, ":")
		if idx < 0 {
			delete(rl.hits, key)
			continue
		}
		var bucket int64
		if _, err := fmt.Sscanf(key[idx+1:], "%d", &bucket); err != nil || bucket < currentBucket {
			delete(rl.hits, key)
		}
	}
	rl.lastCleanup = now
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
