// Package ratelimit provides per-user request limiting for the HTTP surface
// using a token bucket per user.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out a token bucket per user ID. Buckets are created lazily
// on first use.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewLimiter creates a limiter allowing rps sustained requests per user with
// the given burst capacity.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

// getLimiter returns or creates the bucket for userID.
func (l *Limiter) getLimiter(userID string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[userID]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[userID]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[userID] = limiter
	return limiter
}

// Allow reports whether a request from userID may proceed now.
func (l *Limiter) Allow(userID string) bool {
	return l.getLimiter(userID).Allow()
}

// RetryAfter returns how long userID has to wait for the next token. Zero
// means a request would be allowed immediately.
func (l *Limiter) RetryAfter(userID string) time.Duration {
	reservation := l.getLimiter(userID).Reserve()
	delay := reservation.Delay()
	reservation.Cancel()
	return delay
}

// Reset drops all user buckets.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limiters = make(map[string]*rate.Limiter)
}
