// Package ratelimit implements the hybrid request rate limiter: a
// Redis-backed sliding-window counter preferred when reachable, with an
// in-process token bucket as the permanent safety net.
package ratelimit

import (
	"sync"
	"time"
)

// Backend identifies which limiter produced a decision.
type Backend string

const (
	// BackendDistributed is the Redis sliding-window counter.
	BackendDistributed Backend = "distributed"
	// BackendLocal is the in-process token bucket.
	BackendLocal Backend = "local"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool
	RetryAfter int // seconds until a retry may succeed; 0 when allowed
	Remaining  int64
	Limit      int
	Window     int // seconds
	Backend    Backend
}

type bucketEntry struct {
	tokens     int
	lastRefill time.Time
	lastSeen   time.Time
}

// TokenBucket is a per-client token bucket with lazy time-based refill.
// State lives for the process lifetime; a janitor sweeps entries that have
// been idle for several windows so the map stays bounded.
type TokenBucket struct {
	limit  int
	window int // seconds

	mu      sync.Mutex
	entries map[string]*bucketEntry

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// NewTokenBucket creates a bucket allowing limit requests per window seconds
// and starts the idle-entry janitor.
func NewTokenBucket(limit, window int) *TokenBucket {
	b := &TokenBucket{
		limit:   limit,
		window:  window,
		entries: make(map[string]*bucketEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go b.janitor()
	return b
}

// Allow consumes one token for the client key, refilling first based on the
// time elapsed since the last refill. The first request from a key is always
// allowed and leaves limit-1 tokens.
func (b *TokenBucket) Allow(key string) Decision {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	d := Decision{Limit: b.limit, Window: b.window, Backend: BackendLocal}

	e, ok := b.entries[key]
	if !ok {
		b.entries[key] = &bucketEntry{tokens: b.limit - 1, lastRefill: now, lastSeen: now}
		d.Allowed = true
		d.Remaining = int64(b.limit - 1)
		return d
	}

	e.lastSeen = now
	b.refill(e, now)

	if e.tokens < 1 {
		d.RetryAfter = b.window / b.limit
		return d
	}

	e.tokens--
	d.Allowed = true
	d.Remaining = int64(e.tokens)
	return d
}

// refill adds floor(elapsed * limit / window) tokens, capped at the limit.
// lastRefill only advances when tokens were actually added, so fractional
// progress is not lost and back-to-back calls are idempotent.
func (b *TokenBucket) refill(e *bucketEntry, now time.Time) {
	elapsed := now.Sub(e.lastRefill)
	if elapsed <= 0 {
		return
	}
	added := int(elapsed.Seconds() * float64(b.limit) / float64(b.window))
	if added <= 0 {
		return
	}
	e.tokens += added
	if e.tokens > b.limit {
		e.tokens = b.limit
	}
	e.lastRefill = now
}

// Tokens reports the current token count and last refill time for a key.
func (b *TokenBucket) Tokens(key string) (int, time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[key]
	if !ok {
		return 0, time.Time{}, false
	}
	return e.tokens, e.lastRefill, true
}

// Len returns the number of tracked client keys.
func (b *TokenBucket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Sweep removes entries untouched for more than three windows and returns
// how many were evicted.
func (b *TokenBucket) Sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-3 * time.Duration(b.window) * time.Second)
	evicted := 0
	for key, e := range b.entries {
		if e.lastSeen.Before(cutoff) {
			delete(b.entries, key)
			evicted++
		}
	}
	return evicted
}

func (b *TokenBucket) janitor() {
	ticker := time.NewTicker(time.Duration(b.window) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.Sweep()
		case <-b.stop:
			return
		}
	}
}

// Close stops the janitor.
func (b *TokenBucket) Close() {
	b.once.Do(func() { close(b.stop) })
}
