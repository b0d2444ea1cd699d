// Package ratelimit implements the fixed-window admission controller that
// guards the shared upstream credential.
//
// The limiter is deliberately a fixed-window counter rather than a sliding
// log or token bucket: O(1) per check, and the burst artifact at window
// boundaries is acceptable for coarse abuse protection.
package ratelimit

import (
	"sync"
	"time"
)

// Default admission policy for the shared-credential path.
const (
	DefaultLimit  = 10
	DefaultWindow = time.Hour
)

// Decision is the outcome of a single admission check. It is consumed
// immediately by the caller and never stored.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// windowState tracks admissions for one client identity.
//
// Invariant: count is only incremented while now < resetAt; once the window
// has expired the entry is replaced wholesale with count = 1.
type windowState struct {
	count   int
	resetAt time.Time
}

// Limiter enforces at most Limit admissions per identity per Window.
// Entries persist for the lifetime of the process; the map is encapsulated
// here so a bounded or external backend could be swapped in without touching
// callers.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	clients map[string]*windowState
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock injects a clock source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New returns a limiter with the given policy. Non-positive arguments fall
// back to the defaults.
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}

	l := &Limiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*windowState),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the configured admission limit.
func (l *Limiter) Limit() int {
	return l.limit
}

// Window returns the configured window duration.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Check records an admission attempt for key and returns the decision.
// Denials never mutate the stored window, so repeated denied checks report
// the same ResetAt. The read-modify-write on one identity is atomic under
// the limiter mutex; identities are otherwise independent.
func (l *Limiter) Check(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	state, ok := l.clients[key]
	if !ok || !now.Before(state.resetAt) {
		reset := now.Add(l.window)
		l.clients[key] = &windowState{count: 1, resetAt: reset}
		return Decision{Allowed: true, Remaining: l.limit - 1, ResetAt: reset}
	}

	if state.count >= l.limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: state.resetAt}
	}

	state.count++
	return Decision{Allowed: true, Remaining: l.limit - state.count, ResetAt: state.resetAt}
}

// Size reports the number of identities currently tracked. Used by health
// checks and the tracked-identity gauge.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
