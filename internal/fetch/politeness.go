package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/campuseats/spider/internal/metrics"
)

// hostLimiters spaces requests to the same host by the politeness delay.
// Limiters are created lazily per host; the map is shared by all workers,
// so access is mutex-guarded.
type hostLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

func newHostLimiters(politenessDelay time.Duration) *hostLimiters {
	return &hostLimiters{
		limiters: make(map[string]*rate.Limiter),
		interval: politenessDelay,
	}
}

// Wait blocks until the host's next request slot, respecting the context.
func (h *hostLimiters) Wait(ctx context.Context, host string) error {
	if h.interval <= 0 {
		return nil
	}
	if host == "" {
		host = "unknown"
	}

	h.mu.Lock()
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(h.interval), 1)
		h.limiters[host] = limiter
	}
	h.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("politeness wait: %w", err)
	}
	metrics.ObservePolitenessWait(host, time.Since(start))
	return nil
}
