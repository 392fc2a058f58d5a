package commons

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

var retryBackoffs = []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}

// Retry runs fn up to attempts times while it fails with an error isTransient accepts.
// Waits grow along retryBackoffs with ±20% jitter.
func Retry(ctx context.Context, attempts int, isTransient func(error) bool, logger *zap.Logger, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if isTransient == nil || !isTransient(err) || attempt == attempts {
			return err
		}

		wait := backoff(attempt)
		logger.Warn("transient storage error, retrying",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", attempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

func backoff(attempt int) time.Duration {
	base := retryBackoffs[min(attempt-1, len(retryBackoffs)-1)]
	jitter := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(base) * jitter)
}
