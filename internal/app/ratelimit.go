package app

import (
	"sync"
	"time"
)

// Rate limit for login-code requests.
const (
	RateLimitWindow = time.Minute
	RateLimitMax    = 3
)

// RateLimiter counts requests per key over a trailing window. State is
// process-local and not persisted; the window is short and the stakes are
// low. Created by the composition root and injected where needed.
type RateLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	max      int
	requests map[string][]time.Time
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing max requests per key within
// window.
func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	return &RateLimiter{
		window:   window,
		max:      max,
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow prunes timestamps outside the trailing window, then records and
// admits the request unless the key already hit the cap. Pruning and
// counting happen together; there is no separate sweep.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.requests[key][:0]
	for _, t := range l.requests[key] {
		if now.Sub(t) < l.window {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.max {
		l.requests[key] = recent
		return false
	}

	l.requests[key] = append(recent, now)
	return true
}
