package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Key identifies a rate-limited destination (a scraped host or the push gateway).
type Key string

const (
	// KeyPush is the bucket shared by every outbound push send.
	KeyPush Key = "push"
)

// Limiter manages one token bucket per key. Keys are created lazily with
// the limiter's default rate and burst.
type Limiter struct {
	limiters map[Key]*rate.Limiter
	mu       sync.RWMutex

	limit rate.Limit
	burst int
}

// New creates a limiter allowing perSecond events per key with the given burst.
// A non-positive perSecond disables limiting.
func New(perSecond float64, burst int) *Limiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[Key]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// Unlimited returns a limiter that never blocks, for tests.
func Unlimited() *Limiter {
	return New(0, 1)
}

// Set overrides the rate for a single key.
func (l *Limiter) Set(key Key, perSecond float64, burst int) {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	l.mu.Lock()
	l.limiters[key] = rate.NewLimiter(limit, burst)
	l.mu.Unlock()
}

func (l *Limiter) get(key Key) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists = l.limiters[key]; !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}

// Wait blocks until the rate limiter permits an event for the given key
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, key Key) error {
	if l == nil {
		return nil
	}
	return l.get(key).Wait(ctx)
}

// Allow reports whether an event for the given key may happen now
func (l *Limiter) Allow(key Key) bool {
	if l == nil {
		return true
	}
	return l.get(key).Allow()
}
