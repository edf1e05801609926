package chain

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errFlaky     = errors.New("flaky")
	errPermanent = errors.New("permanent")
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetrySucceedsAfterRetryableErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var retries []int
	cfg := fastRetry(4)
	cfg.OnRetry = func(attempt int, _ time.Duration, _ error) { retries = append(retries, attempt) }

	got, err := Retry(context.Background(), cfg, func(context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", WrapRetryable(errFlaky)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []int{1, 2}, retries)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	_, err := Retry(context.Background(), fastRetry(5), func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errPermanent
	})

	require.ErrorIs(t, err, errPermanent)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryExhausted(t *testing.T) {
	t.Parallel()

	_, err := Retry(context.Background(), fastRetry(3), func(context.Context) (int, error) {
		return 0, WrapRetryable(errFlaky)
	})

	require.ErrorIs(t, err, errFlaky)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetryHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	_, err := Retry(ctx, cfg, func(context.Context) (int, error) {
		cancel()
		return 0, WrapRetryable(errFlaky)
	})

	require.ErrorIs(t, err, context.Canceled)
}

func TestNoRetryRunsOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	_, err := Retry(context.Background(), NoRetry(), func(context.Context) (int, error) {
		calls.Add(1)
		return 0, WrapRetryable(errFlaky)
	})

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "attempts")
	assert.Equal(t, int32(1), calls.Load())
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errPermanent))
	assert.True(t, IsRetryable(WrapRetryable(errFlaky)))
	assert.True(t, IsRetryable(&RateLimitedError{RetryAfter: time.Second}))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.NoError(t, WrapRetryable(nil))
}

func TestBackoffBounds(t *testing.T) {
	t.Parallel()

	for attempt := 0; attempt < 6; attempt++ {
		d := backoff(attempt, 100*time.Millisecond, time.Second)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.Less(t, d, time.Second)
	}
	assert.Equal(t, time.Duration(0), backoff(3, 0, time.Second))
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3*time.Second, ParseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("soon"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("-2"))
}

func TestRateLimitedErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rate limited", (&RateLimitedError{}).Error())
	assert.Equal(t, "rate limited, retry after 2s", (&RateLimitedError{RetryAfter: 2 * time.Second}).Error())
	assert.ErrorIs(t, &RateLimitedError{}, ErrRateLimited)
}
