// Package retry runs operations with bounded exponential backoff.
//
// Only failures classified as transient (rate limiting, server errors) are
// retried; anything else returns immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Default policy values.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 30 * time.Second
	DefaultMultiplier  = 2.0
)

// Policy configures retry behaviour.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first one.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration

	// MaxDelay caps the delay between attempts.
	MaxDelay time.Duration

	// Multiplier is the factor by which the delay grows after each attempt.
	Multiplier float64

	// Jitter randomises each delay by ±50%.
	Jitter bool

	// Retryable decides whether an error is worth retrying.
	// Defaults to domain.IsTransient.
	Retryable func(error) bool
}

// DefaultPolicy returns the default policy: 5 attempts, 500ms doubling, capped at 30s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Multiplier:  DefaultMultiplier,
	}
}

// withDefaults fills zero fields.
func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultMultiplier
	}
	if p.Retryable == nil {
		p.Retryable = domain.IsTransient
	}
	return p
}

// backOff builds the exponential schedule for the policy.
func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	if p.Jitter {
		b.RandomizationFactor = 0.5
	}
	return b
}

// hintedBackOff follows the exponential schedule but never waits less than
// a server-suggested delay. The hint applies to the next wait only and is
// capped at max.
type hintedBackOff struct {
	inner *backoff.ExponentialBackOff
	max   time.Duration
	hint  time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	next := h.inner.NextBackOff()
	hint := h.hint
	h.hint = 0
	if next == backoff.Stop {
		return next
	}
	if hint > next {
		next = min(hint, h.max)
	}
	return next
}

func (h *hintedBackOff) Reset() {
	h.inner.Reset()
	h.hint = 0
}

// retryAfter returns the server-suggested delay carried by err, if any.
func retryAfter(err error) time.Duration {
	var upErr *domain.UpstreamError
	if errors.As(err, &upErr) {
		return upErr.RetryAfter
	}
	return 0
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do runs fn until it succeeds, returns a non-retryable error, the
// attempts are exhausted, or ctx is cancelled.
func Do(ctx context.Context, p Policy, op string, fn func() error) error {
	_, err := DoValue(ctx, p, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoValue is Do for operations that return a value.
func DoValue[T any](ctx context.Context, p Policy, op string, fn func() (T, error)) (T, error) {
	p = p.withDefaults()

	attempts := 0
	var lastErr error
	schedule := &hintedBackOff{inner: p.backOff(), max: p.MaxDelay}
	operation := func() (T, error) {
		attempts++
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !p.Retryable(err) {
			return v, backoff.Permanent(err)
		}
		schedule.hint = retryAfter(err)
		return v, err
	}

	v, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(schedule),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Debug("retry %s: attempt %d failed, next in %s: %v", op, attempts, next, err)
		}),
	)
	if err == nil {
		return v, nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	if attempts >= p.MaxAttempts && lastErr != nil && p.Retryable(lastErr) && errors.Is(err, lastErr) {
		return v, &ExhaustedError{Attempts: attempts, Err: lastErr}
	}
	return v, err
}
