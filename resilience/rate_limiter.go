package resilience

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitConfig caps how often a caller may proceed. Zero Rate disables
// the limit.
type RateLimitConfig struct {
	// Rate is events per second.
	Rate  float64 `yaml:"rate" mapstructure:"rate"`
	Burst int     `yaml:"burst" mapstructure:"burst"`
}

// Enabled reports whether a limit is configured.
func (c RateLimitConfig) Enabled() bool {
	return c.Rate > 0
}

// RateLimiter is a token bucket. A nil *RateLimiter never waits.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter returns nil when cfg is disabled. Burst defaults to 1.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if !cfg.Enabled() {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.Rate), burst)}
}

// Wait blocks until a token is available or ctx ends.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return ctx.Err()
	}
	return r.limiter.Wait(ctx)
}

// Allow takes a token without waiting and reports whether one was available.
func (r *RateLimiter) Allow() bool {
	return r == nil || r.limiter.Allow()
}
