package client

import (
	"math/rand"
	"time"
)

// RetryConfig holds the backoff tuning for retried attempts. The values
// are tunable configuration, not contracts; only the shape (exponential
// growth under a cap, with jitter) is fixed.
type RetryConfig struct {
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay regardless of attempt count.
	MaxBackoff time.Duration

	// BackoffMultiplier is the per-attempt growth factor.
	BackoffMultiplier float64

	// Jitter enables +-20% randomization of each delay to avoid
	// thundering-herd retries across concurrent workers.
	Jitter bool
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// ShouldRetry decides whether a failed attempt gets another try: the
// failure must be transient and the attempt budget must not be spent.
// attempt is 1-based; a request makes at most maxRetries+1 attempts.
func ShouldRetry(class ErrorClass, attempt, maxRetries int) bool {
	return class.Retryable() && attempt <= maxRetries
}

// Delay returns the backoff to wait before the retry that follows the
// given (1-based) failed attempt: min(initial * mult^(attempt-1), cap).
func (rc RetryConfig) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	backoff := float64(rc.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= rc.BackoffMultiplier
		if backoff >= float64(rc.MaxBackoff) {
			backoff = float64(rc.MaxBackoff)
			break
		}
	}
	if backoff > float64(rc.MaxBackoff) {
		backoff = float64(rc.MaxBackoff)
	}

	if rc.Jitter {
		backoff *= 0.8 + rand.Float64()*0.4
	}

	return time.Duration(backoff)
}
