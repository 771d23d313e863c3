package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTest = errors.New("test error")

func noWait(int) time.Duration { return time.Millisecond }

func TestDoWithResult(t *testing.T) {
	t.Run("SucceedsAfterFailures", func(t *testing.T) {
		var calls int
		got, err := DoWithResult(t.Context(), RetryConfig{MaxAttempts: 3, Backoff: noWait},
			func() (int, error) {
				calls++
				if calls < 3 {
					return 0, errTest
				}
				return 42, nil
			})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("ReturnsLastError", func(t *testing.T) {
		var calls int
		err := Do(t.Context(), RetryConfig{MaxAttempts: 2, Backoff: noWait},
			func() error {
				calls++
				return errTest
			})
		assert.ErrorIs(t, err, errTest)
		assert.Equal(t, 2, calls)
	})

	t.Run("NotRetryable", func(t *testing.T) {
		var calls int
		cfg := RetryConfig{
			MaxAttempts: 5,
			Backoff:     noWait,
			ShouldRetry: func(error) bool { return false },
		}
		err := Do(t.Context(), cfg, func() error {
			calls++
			return errTest
		})
		assert.ErrorIs(t, err, errTest)
		assert.Equal(t, 1, calls)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err := Do(ctx, RetryConfig{MaxAttempts: 3}, func() error {
			t.Fatal("must not be called")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("CanceledWhileWaiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cfg := RetryConfig{
			MaxAttempts: 3,
			Backoff:     func(int) time.Duration { return time.Hour },
		}
		err := Do(ctx, cfg, func() error {
			cancel()
			return errTest
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, errTest)
	})
}

func TestBackoff(t *testing.T) {
	linear := LinearBackoff(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, linear(1))
	assert.Equal(t, 30*time.Millisecond, linear(3))

	exp := ExponentialBackoff(10 * time.Millisecond)
	for attempt := 1; attempt <= 4; attempt++ {
		base := time.Duration(1<<attempt) * 10 * time.Millisecond
		d := exp(attempt)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+base/2)
	}
}

func TestNotOn(t *testing.T) {
	shouldRetry := NotOn(context.Canceled, errTest)

	assert.False(t, shouldRetry(context.Canceled))
	assert.False(t, shouldRetry(fmt.Errorf("wrapped: %w", errTest)))
	assert.True(t, shouldRetry(errors.New("temporary")))

	calls := 0
	err := Do(t.Context(), RetryConfig{
		MaxAttempts: 5,
		Backoff:     noWait,
		ShouldRetry: shouldRetry,
	}, func() error {
		calls++
		return errTest
	})
	assert.ErrorIs(t, err, errTest)
	assert.Equal(t, 1, calls)
}
