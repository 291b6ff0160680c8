// Package retry retries transient failures on a fixed schedule with context cancellation.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds retry configuration
type Config struct {
	Attempts int
	Delay    time.Duration
}

// Do executes fn up to cfg.Attempts times, waiting cfg.Delay between attempts.
// op names the operation in log and error messages. Failed attempts short of
// the last one are logged as warnings; exhaustion returns the last error
// wrapped with context.
func Do(ctx context.Context, cfg Config, op string, fn func() error) error {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(cfg.Delay):
			case <-ctx.Done():
				return fmt.Errorf("%s retry cancelled: %w", op, ctx.Err())
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < cfg.Attempts {
			logrus.WithError(lastErr).Warnf("%s attempt %d/%d failed, retrying in %s",
				op, attempt, cfg.Attempts, cfg.Delay)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, cfg.Attempts, lastErr)
}
