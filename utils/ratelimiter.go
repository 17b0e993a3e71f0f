package utils

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces out successive sessions against the provider site
type RateLimiter struct {
	limiter *rate.Limiter
	delay   time.Duration
}

// NewRateLimiter creates a new RateLimiter with the given delay in milliseconds.
// The first Wait returns immediately.
func NewRateLimiter(delayMs int) *RateLimiter {
	delay := time.Duration(delayMs) * time.Millisecond
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, 1),
		delay:   delay,
	}
}

// Delay returns the minimum spacing between calls
func (r *RateLimiter) Delay() time.Duration {
	return r.delay
}

// Wait blocks until enough time has passed since the last call or ctx is done
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
