package chain

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per endpoint host, so connectors that
// share a public API (TronGrid, toncenter, Blockstream) share its budget.
type RateLimiter struct {
	limiters   map[string]*rate.Limiter
	overrides  map[string]rate.Limit
	mu         sync.RWMutex
	rateLimit  rate.Limit
	burstLimit int
}

// NewRateLimiter creates a limiter allowing ratePerSecond requests with the given burst.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters:   make(map[string]*rate.Limiter),
		overrides:  make(map[string]rate.Limit),
		rateLimit:  rate.Limit(ratePerSecond),
		burstLimit: burst,
	}
}

// DefaultRateLimiter returns 5 requests/second with a burst of 10.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(5, 10)
}

// SetHostRate overrides the rate for one host. It only affects buckets
// created after the call.
func (r *RateLimiter) SetHostRate(host string, ratePerSecond float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[host] = rate.Limit(ratePerSecond)
}

// Allow reports whether a request to rawURL may proceed now.
func (r *RateLimiter) Allow(rawURL string) bool {
	return r.limiter(hostOf(rawURL)).Allow()
}

// Wait blocks until a request to rawURL is allowed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, rawURL string) error {
	return r.limiter(hostOf(rawURL)).Wait(ctx)
}

func (r *RateLimiter) limiter(host string) *rate.Limiter {
	r.mu.RLock()
	l, ok := r.limiters[host]
	r.mu.RUnlock()
	if ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok = r.limiters[host]; ok {
		return l
	}

	limit := r.rateLimit
	if override, ok := r.overrides[host]; ok {
		limit = override
	}
	l = rate.NewLimiter(limit, r.burstLimit)
	r.limiters[host] = l
	return l
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
