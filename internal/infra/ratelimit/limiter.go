// Package ratelimit admits requests per client within fixed windows.
package ratelimit

import (
	"sync"
	"time"

	"widgetd/internal/domain"
)

type record struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per client key. A key's window starts with its
// first request and resets once the window has passed. Stale records are
// swept lazily, at most once per window, so no background goroutine is
// needed.
type Limiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	now       func() time.Time
	records   map[string]*record
	lastSweep time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New returns a limiter admitting limit requests per window. Non-positive
// values fall back to the defaults.
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = domain.DefaultRateLimitRequests
	}
	if window <= 0 {
		window = domain.DefaultRateLimitWindow
	}
	l := &Limiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		records: make(map[string]*record),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

// Admit records a request from key and reports whether it is within the
// limit. The check and the increment happen under one lock.
func (l *Limiter) Admit(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	rec, ok := l.records[key]
	if !ok || now.After(rec.resetAt) {
		rec = &record{resetAt: now.Add(l.window)}
		l.records[key] = rec
	}
	if rec.count >= l.limit {
		return false
	}
	rec.count++
	return true
}

// sweepLocked drops records whose window closed more than a window ago.
func (l *Limiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key, rec := range l.records {
		if now.Sub(rec.resetAt) > l.window {
			delete(l.records, key)
		}
	}
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

func (l *Limiter) Limit() int {
	return l.limit
}

func (l *Limiter) Window() time.Duration {
	return l.window
}
