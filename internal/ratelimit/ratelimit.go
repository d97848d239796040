// Package ratelimit implements per-key admission control over fixed time
// windows: a key's request count accumulates until its window elapses, then
// the entry is replaced wholesale. Coarse by design; burst smoothing is not
// a goal.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultLimit  = 100
	DefaultWindow = 60 * time.Second
)

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter tracks request counts per key. All methods are safe for
// concurrent use; Allow holds the lock across its whole read-modify-write
// so two racing requests from one key cannot both slip past the limit.
type Limiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	entries map[string]*entry

	ticker *time.Ticker
	stop   chan struct{}
}

// New creates a limiter allowing limit requests per key per window. Zero or
// negative arguments fall back to the defaults. A background sweep runs once
// per window to drop expired entries, bounding memory to active keys.
func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}

	l := &Limiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*entry),
		ticker:  time.NewTicker(window),
		stop:    make(chan struct{}),
	}
	go l.sweep()

	return l
}

// Limit returns the per-window quota.
func (l *Limiter) Limit() int { return l.limit }

// Allow records one request for key and reports whether it is within quota.
// A fresh entry is created when none exists or the existing window has
// elapsed. The count is incremented on every call, including rejected ones;
// it keeps growing past the limit until the window rolls over.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || e.resetAt.Before(now) {
		e = &entry{resetAt: now.Add(l.window)}
		l.entries[key] = e
	}
	e.count++

	return e.count <= l.limit
}

// Remaining reports how many requests key has left in its current window
// without mutating any state. Absent or expired keys have the full quota.
func (l *Limiter) Remaining(key string) int {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || e.resetAt.Before(now) {
		return l.limit
	}
	if e.count >= l.limit {
		return 0
	}
	return l.limit - e.count
}

// ResetTime reports when key's current window ends, as epoch seconds. For
// absent or expired keys it projects a window starting now.
func (l *Limiter) ResetTime(key string) int64 {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || e.resetAt.Before(now) {
		return now.Add(l.window).Unix()
	}
	return e.resetAt.Unix()
}

// sweep drops expired entries once per window interval.
func (l *Limiter) sweep() {
	for {
		select {
		case <-l.ticker.C:
			now := time.Now()
			l.mu.Lock()
			for key, e := range l.entries {
				if e.resetAt.Before(now) {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

// Stop halts the background sweep.
func (l *Limiter) Stop() {
	l.ticker.Stop()
	close(l.stop)
}
