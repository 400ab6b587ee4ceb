package utils

import (
	"fmt"
	"time"
)

// RetryConfig retries an operation with exponential back-off. Used for
// collaborators that may need a moment to come up, like the optional
// Postgres snapshot backend.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *Logger
}

// Do runs fn up to MaxAttempts times, doubling the pause after each failed
// attempt. There is no pause before the first attempt. The returned error
// wraps the last failure.
func (r *RetryConfig) Do(operation string, fn func() error) error {
	var lastErr error
	pause := r.BaseDelay

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < r.MaxAttempts {
			r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v — retrying in %v",
				operation, attempt, r.MaxAttempts, lastErr, pause)
			time.Sleep(pause)
			pause *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, r.MaxAttempts, lastErr)
}
