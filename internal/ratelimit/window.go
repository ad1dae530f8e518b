package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript prunes expired entries, counts the window, and inserts
// the new request in one atomic unit per key, so concurrent requests for the
// same key can never under- or over-count.
//
// KEYS[1] = client key; ARGV = now (seconds), window (seconds), limit, member.
var slidingWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)
local count = redis.call("ZCARD", KEYS[1])
if count >= limit then
  return {0, count}
end
redis.call("ZADD", KEYS[1], now, ARGV[4])
redis.call("EXPIRE", KEYS[1], window)
return {1, count + 1}
`)

// SlidingWindow counts request timestamps per client key in a Redis sorted
// set pruned by the trailing window. Any transport or protocol failure is
// reported as an error, never as a rate decision; the hybrid limiter treats
// it as backend unavailability.
type SlidingWindow struct {
	client    *redis.Client
	limit     int
	window    int // seconds
	opTimeout time.Duration
	now       func() time.Time
}

// NewSlidingWindow creates a distributed counter allowing limit requests per
// window seconds.
func NewSlidingWindow(client *redis.Client, limit, window int, opTimeout time.Duration) *SlidingWindow {
	if opTimeout <= 0 {
		opTimeout = 2 * time.Second
	}
	return &SlidingWindow{
		client:    client,
		limit:     limit,
		window:    window,
		opTimeout: opTimeout,
		now:       time.Now,
	}
}

// Allow records one request for the key and decides within the window.
func (w *SlidingWindow) Allow(ctx context.Context, key string) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, w.opTimeout)
	defer cancel()

	now := w.now()
	nowSec := float64(now.UnixNano()) / 1e9
	member := fmt.Sprintf("%d", now.UnixNano())

	res, err := slidingWindowScript.Run(ctx, w.client, []string{key},
		nowSec, w.window, w.limit, member).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("sliding window script: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("sliding window script: unexpected reply %v", res)
	}

	allowed, _ := res[0].(int64)
	count, _ := res[1].(int64)

	d := Decision{
		Allowed:   allowed == 1,
		Remaining: int64(w.limit) - count,
		Limit:     w.limit,
		Window:    w.window,
		Backend:   BackendDistributed,
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = w.window / w.limit
	}
	return d, nil
}

// Count returns the current number of requests in the key's window.
func (w *SlidingWindow) Count(ctx context.Context, key string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, w.opTimeout)
	defer cancel()

	n, err := w.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("sliding window count: %w", err)
	}
	return n, nil
}

// Ping verifies the backing store is reachable.
func (w *SlidingWindow) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.opTimeout)
	defer cancel()
	return w.client.Ping(ctx).Err()
}
