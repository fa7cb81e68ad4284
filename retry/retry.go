// Package retry bounds handler invocations with a fixed-delay budget.
//
// Attempts are numbered from 0. A failure at attempt k < MaxRetries
// sleeps the fixed delay, then runs attempt k+1; a failure at attempt
// MaxRetries is terminal and the final error is returned to the caller.
// Errors wrapped with Permanent abort immediately without retrying —
// retrying cannot fix a missing registration.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy describes a bounded fixed-delay retry budget.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first
	// failure. Zero means a single attempt.
	MaxRetries int

	// Delay is the fixed wait between attempts.
	Delay time.Duration
}

// AttemptFunc runs one attempt. The zero-based attempt number is passed
// in so callers can expose it to hooks and logs.
type AttemptFunc func(ctx context.Context, attempt int) error

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do returns it immediately instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent and so
// will not be retried.
func IsPermanent(err error) bool {
	var perm *permanentError
	return errors.As(err, &perm)
}

// Do runs fn under the policy: an iterative loop with an explicit
// attempt counter and a fixed sleep between attempts. It returns nil on
// the first success, the unwrapped error for a permanent failure, and
// the last attempt's error once the budget is exhausted. The context
// cancels the delay between attempts.
func Do(ctx context.Context, p Policy, fn AttemptFunc) error {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := p.Delay
	if delay <= 0 {
		delay = time.Second
	}

	b := retry.WithMaxRetries(uint64(maxRetries), retry.NewConstant(delay))

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		attempt++
		return retry.RetryableError(err)
	})
}
