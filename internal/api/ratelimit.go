package api

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiters holds one token bucket per tenant, built lazily on first
// use. Bucket capacity is burst, refill rate is rps tokens/sec, per the
// rate-limiting contract in the external interface spec.
type RateLimiters struct {
	store sync.Map // map[string]*rate.Limiter
	rps   float64
	burst int
}

// NewRateLimiters builds a RateLimiters with the given per-tenant rps/burst.
func NewRateLimiters(rps float64, burst int) *RateLimiters {
	return &RateLimiters{rps: rps, burst: burst}
}

func (l *RateLimiters) limiterFor(tenantID string) *rate.Limiter {
	if v, ok := l.store.Load(tenantID); ok {
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	actual, _ := l.store.LoadOrStore(tenantID, limiter)
	return actual.(*rate.Limiter)
}

// Allow reports whether a request for tenantID may proceed. When denied,
// retryAfter is the caller's suggested wait before retrying, computed as
// ceil((1 - current_tokens) / refill_rate) seconds. A misconfigured
// limiter (non-positive rps or burst) fails closed — every request denied.
func (l *RateLimiters) Allow(tenantID string) (allowed bool, retryAfter time.Duration) {
	if l.rps <= 0 || l.burst <= 0 {
		return false, time.Second
	}
	limiter := l.limiterFor(tenantID)
	now := time.Now()
	if limiter.AllowN(now, 1) {
		return true, 0
	}
	tokens := limiter.TokensAt(now)
	seconds := math.Ceil((1 - tokens) / l.rps)
	if seconds < 0 {
		seconds = 0
	}
	return false, time.Duration(seconds) * time.Second
}
