// Package retry wraps a single fallible provider call with exponential
// backoff. Only transient failures are retried; responses the system cannot
// interpret are terminal for the call.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/model"
)

const (
	// DefaultInitialInterval is the delay before the first retry. Each
	// subsequent delay grows exponentially up to DefaultMaxInterval.
	DefaultInitialInterval = 500 * time.Millisecond
	// DefaultMaxInterval caps the inter-attempt delay.
	DefaultMaxInterval = 10 * time.Second
	// DefaultMaxAttempts is the total number of tries, not just retries.
	DefaultMaxAttempts = 3
)

// Config tunes the backoff policy. Zero values fall back to the defaults,
// so Config{} is usable as-is.
type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     uint
}

func (c Config) maxAttempts() uint {
	if c.MaxAttempts == 0 {
		return DefaultMaxAttempts
	}
	return c.MaxAttempts
}

// Do runs op until it succeeds or the attempt budget is exhausted. Errors
// tagged ErrTagUpstreamResponse are returned immediately without further
// attempts. When all attempts fail, the returned error carries
// ErrTagUpstreamExhausted with the last underlying failure as its cause.
// Safe only for idempotent operations; all calls here are read-only.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	exp := backoff.NewExponentialBackOff()
	// Delays must grow monotonically between attempts; jitter could shrink
	// a delay below the previous one.
	exp.RandomizationFactor = 0
	if cfg.InitialInterval > 0 {
		exp.InitialInterval = cfg.InitialInterval
	} else {
		exp.InitialInterval = DefaultInitialInterval
	}
	if cfg.MaxInterval > 0 {
		exp.MaxInterval = cfg.MaxInterval
	} else {
		exp.MaxInterval = DefaultMaxInterval
	}

	attempts := cfg.maxAttempts()

	result, err := backoff.Retry(ctx, func() (T, error) {
		v, err := op(ctx)
		if err != nil && goerr.HasTag(err, model.ErrTagUpstreamResponse) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(exp), backoff.WithMaxTries(attempts))
	if err == nil {
		return result, nil
	}

	if goerr.HasTag(err, model.ErrTagUpstreamResponse) {
		var zero T
		return zero, err
	}

	var zero T
	return zero, goerr.Wrap(err, "provider call failed after all backoff attempts",
		goerr.T(model.ErrTagUpstreamExhausted),
		goerr.V("max_attempts", attempts))
}
