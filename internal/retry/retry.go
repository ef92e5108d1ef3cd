// Package retry provides bounded fixed-delay retries for operations that
// talk to a possibly-absent server. The attempt count is always finite; a
// dead endpoint is reported, never hammered.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Clock       clockwork.Clock
	OnRetry     func(attempt int, err error)
}

// Operation produces a value or a transient error.
type Operation[T any] func() (T, error)

// VoidOperation is an Operation without a result.
type VoidOperation func() error

// Do runs op up to MaxAttempts times, sleeping Delay between attempts.
func Do[T any](ctx context.Context, p Policy, op Operation[T]) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		return zero, fmt.Errorf("retry: MaxAttempts must be >= 1, got %d", p.MaxAttempts)
	}
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		val, err := op()
		if err == nil {
			return val, nil
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		select {
		case <-clock.After(p.Delay):
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}
	return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, lastErr)
}

// DoVoid runs a VoidOperation under the same policy.
func DoVoid(ctx context.Context, p Policy, op VoidOperation) error {
	_, err := Do(ctx, p, func() (struct{}, error) { return struct{}{}, op() })
	return err
}
