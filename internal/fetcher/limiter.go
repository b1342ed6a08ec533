package fetcher

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter spaces successive requests to the same host by a fixed
// delay. It is a politeness measure against multi-page operations
// (catalog pagination, policy/FAQ sub-pages, competitor candidates),
// not a correctness requirement.
type HostLimiter struct {
	delay time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHostLimiter creates a limiter; a non-positive delay disables it.
func NewHostLimiter(delay time.Duration) *HostLimiter {
	l := &HostLimiter{delay: delay}
	if delay > 0 {
		l.limiters = make(map[string]*rate.Limiter)
	}
	return l
}

// Wait blocks until the politeness interval for the host has elapsed.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l == nil || l.delay <= 0 || host == "" {
		return nil
	}
	host = strings.ToLower(host)

	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		// Burst of one lets the first request through immediately.
		limiter = rate.NewLimiter(rate.Every(l.delay), 1)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
