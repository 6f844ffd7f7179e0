package util

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Permanent wraps err so that Retry returns it immediately instead of trying
// again. A nil err stays nil.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Retry calls fn up to maxAttempts times with exponential backoff starting at
// baseDelay. It returns nil on the first successful call, or the last error
// if all attempts fail. Errors wrapped with Permanent end the loop early and
// are returned unwrapped. Cancelling ctx stops the wait between attempts.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	_, err := RetryValue(ctx, maxAttempts, baseDelay, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryValue is Retry for functions that produce a value.
func RetryValue[T any](ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() (T, error)) (T, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	if b.MaxInterval < baseDelay {
		b.MaxInterval = baseDelay
	}
	return backoff.Retry(ctx, fn,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(maxAttempts)),
	)
}
