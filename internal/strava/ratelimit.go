package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Strava rate limits:
// - 100 requests per 15 minutes
// - 1000 requests per day

// RateLimiter paces outgoing requests and tracks Strava's quota headers.
// It never retries on our behalf: a 429 from Strava surfaces to the caller
// as an APIError, and whether to try again later is the caller's decision.
type RateLimiter struct {
	mu sync.Mutex

	shortLimit int
	shortUsage int
	dailyLimit int
	dailyUsage int

	// Minimum interval between requests
	minInterval time.Duration
	lastRequest time.Time
}

// NewRateLimiter creates a rate limiter with Strava's documented limits
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		shortLimit:  100,
		dailyLimit:  1000,
		minInterval: 150 * time.Millisecond, // ~6.6 req/s max
	}
}

// Wait enforces the minimum spacing between requests
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	elapsed := time.Since(r.lastRequest)
	wait := r.minInterval - elapsed
	r.lastRequest = time.Now().Add(wait)
	r.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateFromHeaders records quota state from Strava response headers.
// Strava returns X-RateLimit-Limit: "100,1000" and X-RateLimit-Usage: "34,512".
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if usage := h.Get("X-RateLimit-Usage"); usage != "" {
		parts := strings.Split(usage, ",")
		if len(parts) >= 2 {
			if short, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
				r.shortUsage = short
			}
			if daily, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
				r.dailyUsage = daily
			}
		}
	}

	if limit := h.Get("X-RateLimit-Limit"); limit != "" {
		parts := strings.Split(limit, ",")
		if len(parts) >= 2 {
			if short, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
				r.shortLimit = short
			}
			if daily, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
				r.dailyLimit = daily
			}
		}
	}
}

// Status returns remaining requests in each window
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shortLimit - r.shortUsage, r.dailyLimit - r.dailyUsage
}

// Usage returns the most recently observed usage counts
func (r *RateLimiter) Usage() (shortUsage, dailyUsage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shortUsage, r.dailyUsage
}
