package sources

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// IntervalLimiter enforces a minimum interval between consecutive requests
// to one repository. Every source client owns its own limiter; limiters
// never share state across sources, so a slow repository never throttles
// the others. It is safe for concurrent use.
type IntervalLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewIntervalLimiter creates a limiter that spaces completions at least
// minInterval apart. A non-positive interval yields an unlimited limiter.
//
// Example configurations:
//   - arXiv: NewIntervalLimiter(3 * time.Second) per the API terms of use
//   - OpenAlex: NewIntervalLimiter(100 * time.Millisecond)
func NewIntervalLimiter(minInterval time.Duration) *IntervalLimiter {
	if minInterval <= 0 {
		return &IntervalLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	// Burst of one: tokens regenerate exactly every minInterval, so two
	// Wait calls can never complete closer together than the interval.
	return &IntervalLimiter{
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
		interval: minInterval,
	}
}

// Wait blocks until a request is allowed or the context is canceled.
// Cancellation of the enclosing call aborts the wait.
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed without waiting, consuming
// the token if so.
func (l *IntervalLimiter) Allow() bool {
	return l.limiter.Allow()
}

// Interval returns the configured minimum interval.
func (l *IntervalLimiter) Interval() time.Duration {
	return l.interval
}
