package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Sweeper flips lapsed holds to expired; the call is idempotent.
type Sweeper interface {
	ExpireDue(ctx context.Context) (int64, error)
}

// LazyExpiry runs the hold-expiry sweep before the request proceeds, so
// authenticated reads never observe a hold past its TTL as active. The
// sweep is throttled: at most one pass per minInterval across all
// requests, since availability math compares against the clock anyway and
// the sweep only exists to settle statuses.
func LazyExpiry(sweeper Sweeper, minInterval time.Duration, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	var lastRun atomic.Int64
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now().UnixNano()
			last := lastRun.Load()
			if now-last >= int64(minInterval) && lastRun.CompareAndSwap(last, now) {
				if _, err := sweeper.ExpireDue(r.Context()); err != nil {
					// Sweep failure must not fail the request; the next
					// request or the background job retries.
					log.Error("hold expiry sweep failed", "error", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
