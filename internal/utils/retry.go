package utils

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"book-network-backend/internal/logger"
)

const (
	defaultMaxAttempts  = 3
	defaultBaseDelay    = 20 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
	ErrNegativeBaseDelay  = errors.New("base delay must not be negative")
)

// RetryableFunc is one attempt of a unit of work.
type RetryableFunc func(ctx context.Context) error

type retryConfig struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
	retryable    func(error) bool
	name         string
}

// RetryOption configures RetryWithExponentialBackoff.
type RetryOption func(*retryConfig) error

func WithMaxAttempts(attempts int) RetryOption {
	return func(c *retryConfig) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		c.maxAttempts = attempts
		return nil
	}
}

// WithBaseDelay sets the first backoff. Later attempts wait baseDelay*2, baseDelay*4, ...
func WithBaseDelay(delay time.Duration) RetryOption {
	return func(c *retryConfig) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}
		c.baseDelay = delay
		return nil
	}
}

// RetryOn sets the predicate deciding which errors are replayed. Without it nothing is retried.
func RetryOn(retryable func(error) bool) RetryOption {
	return func(c *retryConfig) error {
		c.retryable = retryable
		return nil
	}
}

// WithName labels retry log lines.
func WithName(name string) RetryOption {
	return func(c *retryConfig) error {
		c.name = name
		return nil
	}
}

// RetryWithExponentialBackoff runs fn until it succeeds, returns a non retryable
// error, the context ends or the attempts are used up. The last error is returned.
func RetryWithExponentialBackoff(ctx context.Context, fn RetryableFunc, options ...RetryOption) error {
	cfg := &retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
		retryable:    func(error) bool { return false },
	}
	for _, option := range options {
		if err := option(cfg); err != nil {
			return err
		}
	}

	var lastErr error
	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := cfg.baseDelay * time.Duration(1<<(attempt-1))
			delay += time.Duration(rand.Float64() * float64(delay) * cfg.jitterFactor) //nolint:gosec // jitter only
			logger.Debug("Retrying after transaction conflict", "operation", cfg.name, "attempt", attempt+1, "delay", delay)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil || !cfg.retryable(lastErr) {
			return lastErr
		}
	}

	logger.Warn("Giving up after retries", "operation", cfg.name, "attempts", cfg.maxAttempts, "error", lastErr)
	return lastErr
}
