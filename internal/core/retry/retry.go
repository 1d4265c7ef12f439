// Package retry runs operations with exponential backoff and no jitter.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultBaseDelay is the wait after the first failed attempt. Each later wait doubles.
const DefaultBaseDelay = time.Second

// Policy describes how many times an operation runs and how long to wait between runs.
type Policy struct {
	// Attempts is the total number of invocations, including the first one.
	Attempts int
	// BaseDelay is the wait after the first failure. Defaults to DefaultBaseDelay.
	BaseDelay time.Duration
	// Timer overrides the wall clock timer, mainly for tests.
	Timer backoff.Timer
	// OnRetry is called before each wait with the 1-based attempt that just failed.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// New returns a policy with the given attempt count and the default base delay.
func New(attempts int) Policy {
	return Policy{Attempts: attempts, BaseDelay: DefaultBaseDelay}
}

// Permanent marks err as not retryable. Do returns the inner error unchanged.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do invokes op until it succeeds, returns a permanent error, the context ends,
// or Attempts is exhausted. The last error is returned.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	_, err := Value(ctx, p, func(ctx context.Context, attempt int) (struct{}, error) {
		return struct{}{}, op(ctx, attempt)
	})
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	attempt := 0
	wrapped := func() (T, error) {
		attempt++
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		return op(ctx, attempt)
	}

	notify := func(err error, wait time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
	}

	return backoff.RetryNotifyWithTimerAndData[T](wrapped, p.backOff(ctx), notify, p.Timer)
}

func (p Policy) backOff(ctx context.Context) backoff.BackOffContext {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}

	exp := &backoff.ExponentialBackOff{
		InitialInterval:     base,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         base << 20,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}
