// Package ratelimit provides per-key request limiting, keyed by chat ID at
// the HTTP boundary.
package ratelimit

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var ErrEmptyKey = errors.New("key cannot be empty")

type Limiter interface {
	Allow(key string) (bool, error)
	Reset(key string)
}

// pruneThreshold is the number of tracked keys above which idle entries
// are dropped on the next Allow.
const pruneThreshold = 1024

// KeyedLimiter keeps one token bucket per key.
type KeyedLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	entries map[string]*entry
	now     func() time.Time
}

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// New allows perMinute requests per key per minute with bursts of up to
// burst requests. Non-positive values default to 1.
func New(perMinute, burst int) *KeyedLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &KeyedLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (l *KeyedLimiter) Allow(key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.entries) > pruneThreshold {
		l.pruneLocked(now)
	}

	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastAccess = now
	return e.limiter.AllowN(now, 1), nil
}

func (l *KeyedLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

func (l *KeyedLimiter) pruneLocked(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.lastAccess) > l.idleTTL {
			delete(l.entries, k)
		}
	}
}

var _ Limiter = (*KeyedLimiter)(nil)
