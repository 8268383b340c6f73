package oauth

import (
	"sync"
	"time"
)

const (
	// DefaultRateLimitMax is the number of token endpoint calls allowed per
	// window.
	DefaultRateLimitMax = 10

	// DefaultRateLimitWindow is the fixed window length.
	DefaultRateLimitWindow = 60 * time.Second
)

// RateLimiter is a fixed-window counter guarding token endpoint calls.
//
// It is advisory and in-memory: each instance keeps its own window and
// nothing is shared between processes.
type RateLimiter struct {
	mu          sync.Mutex
	max         int
	window      time.Duration
	now         func() time.Time
	windowStart time.Time
	count       int
}

// NewRateLimiter creates a limiter allowing max calls per window. Zero values
// fall back to DefaultRateLimitMax and DefaultRateLimitWindow.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if max <= 0 {
		max = DefaultRateLimitMax
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	return &RateLimiter{
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether a call may proceed now and, if so, counts it.
// A denied call is not counted.
func (l *RateLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollLocked()
	if l.count >= l.max {
		return false
	}
	l.count++
	return true
}

// RetryAfter returns how long until the current window resets. It is zero
// when a call would be allowed now and positive otherwise.
func (l *RateLimiter) RetryAfter() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollLocked()
	if l.count < l.max {
		return 0
	}
	// The window resets only once elapsed time exceeds it, so at the exact
	// boundary a call is still denied.
	remaining := l.window - l.now().Sub(l.windowStart)
	if remaining <= 0 {
		return time.Millisecond
	}
	return remaining
}

// rollLocked starts a new window once the elapsed time since the window
// start exceeds the window length.
func (l *RateLimiter) rollLocked() {
	now := l.now()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) > l.window {
		l.windowStart = now
		l.count = 0
	}
}
