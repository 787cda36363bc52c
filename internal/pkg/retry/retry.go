// Package retry applies a retry Policy to an operation.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jpillora/backoff"

	"token_screener/internal/pkg/utils"
)

// MaxBackoff caps any computed exponential delay.
const MaxBackoff = 5 * time.Minute

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first one. Values below 1 mean 1.
	MaxAttempts int
	// Retryable reports whether err is worth another attempt. Nil means nothing is retried.
	Retryable func(err error) bool
	// Delay returns the wait before the next attempt; attempt is zero-based.
	Delay func(attempt int, err error) time.Duration
	// OnRetry is called before waiting, if set.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// NoRetry is a Policy that calls the operation exactly once.
var NoRetry = Policy{MaxAttempts: 1}

// ErrExhausted wraps the last error once all attempts are spent.
var ErrExhausted = errors.New("retry attempts exhausted")

// Exponential returns base * 2^attempt, capped at five minutes. A non-positive base yields no delay.
func Exponential(base time.Duration) func(attempt int) time.Duration {
	if base <= 0 {
		return func(int) time.Duration { return 0 }
	}
	b := &backoff.Backoff{Min: base, Max: MaxBackoff, Factor: 2, Jitter: false}
	return func(attempt int) time.Duration {
		return b.ForAttempt(float64(attempt))
	}
}

// Do runs op until it succeeds, returns a non-retryable error, the policy runs out of
// attempts or ctx is done. Non-retryable errors are returned as is.
func Do(ctx context.Context, p Policy, op func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return fmt.Errorf("%w: %w", ctxErr, err)
			}
			return ctxErr
		}

		err = op(ctx, attempt)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		var delay time.Duration
		if p.Delay != nil {
			delay = p.Delay(attempt, err)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if sleepErr := utils.SleepContext(ctx, delay); sleepErr != nil {
			return fmt.Errorf("%w: %w", sleepErr, err)
		}
	}

	if attempts == 1 {
		return err
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, err)
}
