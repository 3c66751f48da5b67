// Package limit provides per-provider rate limiting and retry with capped
// exponential backoff for upstream catalog calls.
package limit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trackbridge/internal/core"
)

// Controller gates every upstream call through a per-provider token bucket
// and retries transient failures with exponential backoff. Definitive
// answers (ErrNotFound, ErrAuthRequired) and caller cancellation are never
// retried.
type Controller struct {
	limiters    map[core.Provider]*rate.Limiter
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	logger      *zap.Logger

	// onRetry is invoked once per retried attempt, for metrics.
	onRetry func(provider core.Provider)
}

func NewController(cfg *core.RateConfig, logger *zap.Logger) *Controller {
	limiters := map[core.Provider]*rate.Limiter{
		core.ProviderSpotify: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		core.ProviderTidal:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}

	return &Controller{
		limiters:    limiters,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		maxDelay:    cfg.MaxDelay,
		logger:      logger,
	}
}

// SetRetryHook registers a callback invoked for every retried attempt.
func (c *Controller) SetRetryHook(hook func(provider core.Provider)) {
	c.onRetry = hook
}

// Do runs op against the named provider, waiting for rate-limit headroom
// before each attempt. It returns the first definitive outcome, or the last
// transient error once attempts are exhausted.
func (c *Controller) Do(ctx context.Context, provider core.Provider, op func(ctx context.Context) error) error {
	limiter, ok := c.limiters[provider]
	if !ok {
		return fmt.Errorf("no limiter for provider %q", provider)
	}

	var lastErr error
	delay := c.baseDelay

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if !core.IsTransient(lastErr) {
			return lastErr
		}

		if attempt == c.maxAttempts {
			break
		}

		c.logger.Warn("Transient provider error, backing off",
			zap.String("provider", string(provider)),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(lastErr))

		if c.onRetry != nil {
			c.onRetry(provider)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.maxDelay {
			delay = c.maxDelay
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", c.maxAttempts, lastErr)
}
