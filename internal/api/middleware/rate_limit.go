package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
	"github.com/pratik-mahalle/opsguard/internal/pkg/utils"
)

// RateLimiter keeps one token bucket per client
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Allow reports whether the client identified by key may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	rl.mu.Unlock()
	return limiter.Allow()
}

// Cleanup drops buckets that are full again
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, limiter := range rl.limiters {
		if limiter.Tokens() >= float64(rl.burst) {
			delete(rl.limiters, key)
		}
	}
}

// RateLimit limits requests per client IP
func RateLimit(requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(requestsPerSecond, burst)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Cleanup()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(utils.ClientIP(r)) {
				utils.WriteError(w, errors.RateLimited("Too many requests. Please try again later."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
