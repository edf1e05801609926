package chain

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// Sentinel errors for retry logic.
var (
	ErrRetryable = &walleterr.WalletError{
		Code:     "RETRYABLE_ERROR",
		Message:  "retryable error",
		ExitCode: walleterr.ExitGeneral,
	}

	ErrRateLimited = &walleterr.WalletError{
		Code:     "RATE_LIMITED",
		Message:  "rate limited",
		ExitCode: walleterr.ExitGeneral,
	}
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts (including initial)
	BaseDelay   time.Duration // Initial delay between retries
	MaxDelay    time.Duration // Maximum delay between retries

	// OnRetry, when set, is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryConfig returns 3 attempts with delays of roughly 500ms and 1s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// NoRetry returns a configuration that runs the operation exactly once.
func NoRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 1}
}

// Retry executes operation with exponential backoff until it succeeds, a
// non-retryable error is returned, or attempts are exhausted.
func Retry[T any](ctx context.Context, cfg RetryConfig, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T
	var err error

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err = operation(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return result, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := backoff(attempt, cfg.BaseDelay, cfg.MaxDelay)
		if after := retryAfter(err); after > delay {
			delay = after
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	if attempts == 1 {
		return result, err
	}
	return result, fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}

// backoff returns baseDelay*2^attempt capped at maxDelay, jittered into [d/2, d).
func backoff(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	if baseDelay <= 0 {
		return 0
	}
	delay := baseDelay << attempt
	if maxDelay > 0 && (delay > maxDelay || delay <= 0) {
		delay = maxDelay
	}
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + rand.N(half) //nolint:gosec // G404: jitter does not need crypto randomness
}

// IsRetryable returns true if the error should trigger a retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRetryable) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}

// WrapRetryable marks an error as retryable.
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}

// RateLimitedError carries the server's Retry-After hint.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// Is makes RateLimitedError match ErrRateLimited.
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited //nolint:errorlint // sentinel identity
}

func retryAfter(err error) time.Duration {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}

// ParseRetryAfter parses a Retry-After header given in seconds.
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
