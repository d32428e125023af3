package providers

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"search-hub/internal/domain/search"
)

// RetryConfig bounds the retry loop shared by all adapters.
type RetryConfig struct {
	// TransientAttempts is the number of extra attempts after a
	// transient failure. Rate-limit failures get exactly one extra
	// attempt regardless of this value.
	TransientAttempts int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffFactor     float64
}

// DefaultRetryConfig returns the retry bounds used in production.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		TransientAttempts: 2,
		InitialDelay:      250 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffFactor:     1.5,
	}
}

// WithRetry runs fn and retries it according to the error kind:
// rate_limit gets one retry after the upstream Retry-After hint (or one
// backoff step without a hint), transient gets up to TransientAttempts
// retries with exponential backoff, everything else fails immediately.
// Authentication and parse failures are never retried because a repeat of
// the identical request cannot change the outcome.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, operation string, fn func() (T, error)) (T, error) {
	var zero T
	rateLimitRetried := false
	transientRetries := 0

	for attempt := 1; ; attempt++ {
		result, err := fn()
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("operation", operation).
					Int("attempt", attempt).
					Msg("operation succeeded after retry")
			}
			return result, nil
		}

		var delay time.Duration
		switch search.KindOf(err) {
		case search.KindRateLimit:
			if rateLimitRetried {
				return zero, err
			}
			rateLimitRetried = true
			delay = search.RetryAfterOf(err)
			if delay <= 0 {
				delay = backoffDelay(1, cfg)
			}
		case search.KindTransient:
			if transientRetries >= cfg.TransientAttempts {
				return zero, err
			}
			transientRetries++
			delay = backoffDelay(transientRetries, cfg)
		default:
			return zero, err
		}

		log.Warn().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempt).
			Dur("retry_delay", delay).
			Msg("retrying operation after error")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// backoffDelay computes exponential backoff with 10% jitter to avoid
// synchronized retries.
func backoffDelay(step int, cfg RetryConfig) time.Duration {
	backoff := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(step-1))
	if backoff > float64(cfg.MaxDelay) {
		backoff = float64(cfg.MaxDelay)
	}
	jitter := backoff * 0.1 * (2.0*float64(time.Now().UnixNano()%100)/100.0 - 1.0)
	return time.Duration(backoff + jitter)
}
