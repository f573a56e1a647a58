package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// StrategyRateLimiter enforces a minimum delay between requests to the same
// fetch backend. Sources that share a strategy (every Greenhouse board, every
// page extraction) share one clock.
type StrategyRateLimiter struct {
	mu        sync.Mutex
	lastCall  map[string]time.Time // key: strategy name
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewStrategyRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same strategy, or the override for that strategy
// when one is set.
func NewStrategyRateLimiter(minDelay time.Duration, overrides map[string]time.Duration) *StrategyRateLimiter {
	return &StrategyRateLimiter{
		lastCall:  make(map[string]time.Time),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

func (r *StrategyRateLimiter) delayFor(strategy string) time.Duration {
	if d, ok := r.overrides[strategy]; ok {
		return d
	}
	return r.minDelay
}

// Wait blocks until enough time has passed since the last request for the
// given strategy. Returns an error if the context is cancelled while waiting.
func (r *StrategyRateLimiter) Wait(ctx context.Context, strategy string) error {
	r.mu.Lock()
	last, ok := r.lastCall[strategy]
	now := time.Now()
	delay := r.delayFor(strategy)

	if !ok || now.Sub(last) >= delay {
		r.lastCall[strategy] = now
		r.mu.Unlock()
		return nil
	}

	remaining := delay - now.Sub(last)
	r.mu.Unlock()

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", strategy, ctx.Err())
	case <-timer.C:
	}

	r.mu.Lock()
	r.lastCall[strategy] = time.Now()
	r.mu.Unlock()

	return nil
}

// RateLimitedFetcher waits for the limiter before delegating to the wrapped
// JobFetcher.
type RateLimitedFetcher struct {
	inner    model.JobFetcher
	limiter  *StrategyRateLimiter
	strategy string
}

// NewRateLimitedFetcher wraps a JobFetcher with strategy-level rate limiting.
func NewRateLimitedFetcher(inner model.JobFetcher, limiter *StrategyRateLimiter, strategy string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:    inner,
		limiter:  limiter,
		strategy: strategy,
	}
}

func (f *RateLimitedFetcher) FetchJobs(ctx context.Context) ([]model.Candidate, error) {
	if err := f.limiter.Wait(ctx, f.strategy); err != nil {
		return nil, err
	}
	return f.inner.FetchJobs(ctx)
}
