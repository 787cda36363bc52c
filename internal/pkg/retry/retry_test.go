package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestExponential_DoublesPerAttempt(t *testing.T) {
	delay := Exponential(100 * time.Millisecond)

	assert.Equal(t, 100*time.Millisecond, delay(0))
	assert.Equal(t, 200*time.Millisecond, delay(1))
	assert.Equal(t, 400*time.Millisecond, delay(2))
	assert.Equal(t, 800*time.Millisecond, delay(3))
}

func TestExponential_ZeroBase(t *testing.T) {
	assert.Zero(t, Exponential(0)(5))
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	var delays []time.Duration
	p := Policy{
		MaxAttempts: 4,
		Retryable:   func(err error) bool { return errors.Is(err, errFlaky) },
		Delay:       func(attempt int, _ error) time.Duration { return time.Duration(attempt) * time.Millisecond },
		OnRetry:     func(_ int, d time.Duration, _ error) { delays = append(delays, d) },
	}

	err := Do(context.Background(), p, func(_ context.Context, attempt int) error {
		calls++
		if attempt < 2 {
			return errFlaky
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{0, time.Millisecond}, delays)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, Retryable: func(error) bool { return true }}

	err := Do(context.Background(), p, func(context.Context, int) error {
		calls++
		return errFlaky
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	terminal := errors.New("terminal")
	calls := 0
	p := Policy{MaxAttempts: 5, Retryable: func(err error) bool { return errors.Is(err, errFlaky) }}

	err := Do(context.Background(), p, func(context.Context, int) error {
		calls++
		return terminal
	})

	assert.Same(t, terminal, err)
	assert.Equal(t, 1, calls)
}

func TestDo_NoRetryPolicy(t *testing.T) {
	calls := 0
	err := Do(context.Background(), NoRetry, func(context.Context, int) error {
		calls++
		return errFlaky
	})

	assert.Same(t, errFlaky, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		MaxAttempts: 3,
		Retryable:   func(error) bool { return true },
		Delay:       func(int, error) time.Duration { return time.Hour },
		OnRetry:     func(int, time.Duration, error) { cancel() },
	}

	err := Do(ctx, p, func(context.Context, int) error { return errFlaky })

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errFlaky)
}
