// Package ratelimit provides a per-client token-bucket rate limiter. Each
// client identity (source IP) gets its own bucket, created lazily on first
// use. Refill is continuous: tokens trickle back at capacity/window rather
// than resetting in one jump, so an idle client regains full capacity after
// one window while a steady client can sustain capacity/window.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned by callers when a bucket is exhausted. Carries a
// user-facing retry-later hint; no retry timestamp is computed.
var ErrRateLimited = errors.New("rate limit exceeded, please try again later")

// Limiter is a registry of per-identity token buckets.
// Safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	window   time.Duration
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a Limiter where each identity may consume up to capacity
// tokens per window, refilled continuously.
func New(capacity int, window time.Duration) *Limiter {
	return &Limiter{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		window:   window,
	}
}

// Allow deducts one token from the identity's bucket if at least one is
// available and reports whether the request may proceed. A previously unseen
// identity gets a fresh full bucket.
func (l *Limiter) Allow(identity string) bool {
	l.mu.Lock()
	b, ok := l.buckets[identity]
	if !ok {
		b = &bucket{
			lim: rate.NewLimiter(rate.Every(l.window/time.Duration(l.capacity)), l.capacity),
		}
		l.buckets[identity] = b
	}
	b.lastSeen = time.Now()
	l.mu.Unlock()

	return b.lim.Allow()
}

// Size returns the number of tracked identities.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep drops buckets not touched for at least idleFor and returns how many
// were removed. An evicted identity that returns later simply gets a fresh
// full bucket, so eviction never penalizes a client.
func (l *Limiter) Sweep(idleFor time.Duration) int {
	cutoff := time.Now().Add(-idleFor)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, id)
			removed++
		}
	}
	return removed
}

// Run sweeps idle buckets every interval until ctx is canceled. The identity
// table is otherwise unbounded; idle eviction keeps memory proportional to
// recently active clients.
func (l *Limiter) Run(ctx context.Context, interval, idleFor time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(idleFor)
		}
	}
}
