// Package ratelimit paces outbound calls to the upstream provider. It
// combines a minimum inter-start interval with a bound on concurrent calls
// so that any number of in-process callers share one provider quota.
package ratelimit

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	// DefaultConcurrency allows one in-flight provider call at a time.
	DefaultConcurrency = 1
	// DefaultInterval is the minimum spacing between call starts.
	DefaultInterval = 200 * time.Millisecond
)

// Throttle serializes and paces operations. Submissions are released in
// FIFO order of arrival at the limiter; work is delayed, never dropped.
type Throttle struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// New creates a Throttle with the given concurrency bound and minimum
// interval between operation starts. Non-positive values fall back to the
// defaults.
func New(concurrency int64, interval time.Duration) *Throttle {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Throttle{
		sem:     semaphore.NewWeighted(concurrency),
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Schedule runs fn once the concurrency slot and the next start slot are
// both available. It blocks until fn completes and returns fn's error.
// Context cancellation while queued aborts without running fn.
func (t *Throttle) Schedule(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return goerr.Wrap(err, "canceled while waiting for throttle slot")
	}
	defer t.sem.Release(1)

	if err := t.limiter.Wait(ctx); err != nil {
		return goerr.Wrap(err, "canceled while waiting for throttle interval")
	}

	return fn(ctx)
}
