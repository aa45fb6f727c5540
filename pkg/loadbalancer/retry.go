package loadbalancer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/llmgateway/gatewayd/pkg/gwerrors"
)

// RetryConfig controls the global retry policy. Reused near-verbatim
// from the teacher's pkg/internal/retry/retry.go exponential-backoff-
// with-jitter implementation, generalized to honor an upstream
// Retry-After hint when one is present on the failing error.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultRetryConfig mirrors the teacher's defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// RetryFunc is a unit of work the retry loop executes.
type RetryFunc func(ctx context.Context) error

// Do runs fn with exponential backoff, retrying only gwerrors.Retryable
// failures, and honoring a Retry-After hint on the failing error in
// place of the computed backoff delay when present.
func Do(ctx context.Context, cfg RetryConfig, fn RetryFunc) error {
	if cfg.MaxRetries == 0 {
		cfg = DefaultRetryConfig()
	}

	var lastErr error
	attempt := 0

	for attempt <= cfg.MaxRetries {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("context cancelled after %d attempts: %w", attempt, lastErr)
			}
			return ctx.Err()
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err
		attempt++

		ge, _ := gwerrors.As(err)
		if ge != nil && !gwerrors.Retryable(ge.Kind) {
			return fmt.Errorf("non-retryable error after %d attempts: %w", attempt, err)
		}

		if attempt > cfg.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, err)
		}

		delay := retryDelay(attempt, cfg, ge)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context cancelled after %d attempts: %w", attempt, lastErr)
		case <-timer.C:
		}
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}

func retryDelay(attempt int, cfg RetryConfig, ge *gwerrors.GatewayError) time.Duration {
	if ge != nil && ge.RetryAfter != nil {
		return time.Duration(*ge.RetryAfter) * time.Second
	}

	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		delay += delay * 0.25 * rand.Float64()
	}
	return time.Duration(delay)
}
