package ratelimit

import (
	"fmt"
	"testing"
	"time"
)

// newTestBucket returns a bucket on a controllable clock with the janitor
// stopped, so tests drive time explicitly.
func newTestBucket(limit, window int) (*TokenBucket, *time.Time) {
	b := NewTokenBucket(limit, window)
	b.Close()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }
	return b, &clock
}

func TestTokenBucket_FirstRequest(t *testing.T) {
	b, _ := newTestBucket(100, 60)

	d := b.Allow("client")
	if !d.Allowed {
		t.Fatal("first request must be allowed")
	}
	if d.Remaining != 99 {
		t.Errorf("expected 99 remaining after first request, got %d", d.Remaining)
	}
	if d.Backend != BackendLocal {
		t.Errorf("expected local backend, got %s", d.Backend)
	}
}

func TestTokenBucket_Exhaustion(t *testing.T) {
	b, _ := newTestBucket(3, 60)

	for i := 0; i < 3; i++ {
		if d := b.Allow("client"); !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	d := b.Allow("client")
	if d.Allowed {
		t.Fatal("request beyond the limit should be denied")
	}
	if d.RetryAfter != 20 {
		t.Errorf("expected retry_after 20 (60/3), got %d", d.RetryAfter)
	}
	if d.Remaining != 0 {
		t.Errorf("expected 0 remaining, got %d", d.Remaining)
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	b, clock := newTestBucket(60, 60)

	for i := 0; i < 60; i++ {
		b.Allow("client")
	}
	if d := b.Allow("client"); d.Allowed {
		t.Fatal("bucket should be empty")
	}

	// One token per second at this rate.
	*clock = clock.Add(2 * time.Second)
	if d := b.Allow("client"); !d.Allowed {
		t.Fatal("expected a token after refill")
	}
	if d := b.Allow("client"); !d.Allowed {
		t.Fatal("expected the second refilled token")
	}
	if d := b.Allow("client"); d.Allowed {
		t.Fatal("only two tokens should have been added")
	}
}

func TestTokenBucket_RefillKeepsFractionalProgress(t *testing.T) {
	b, clock := newTestBucket(2, 60) // one token per 30s

	b.Allow("client")
	b.Allow("client")
	if d := b.Allow("client"); d.Allowed {
		t.Fatal("bucket should be empty")
	}

	// 20s is not enough for a token; lastRefill must not advance, or the
	// elapsed time would be thrown away.
	*clock = clock.Add(20 * time.Second)
	if d := b.Allow("client"); d.Allowed {
		t.Fatal("no token should exist after 20s")
	}
	*clock = clock.Add(15 * time.Second)
	if d := b.Allow("client"); !d.Allowed {
		t.Fatal("expected a token 35s after exhaustion")
	}
}

func TestTokenBucket_RefillCap(t *testing.T) {
	b, clock := newTestBucket(5, 60)

	b.Allow("client")
	*clock = clock.Add(time.Hour)

	for i := 0; i < 5; i++ {
		if d := b.Allow("client"); !d.Allowed {
			t.Fatalf("request %d should be allowed after a long idle", i+1)
		}
	}
	if d := b.Allow("client"); d.Allowed {
		t.Fatal("refill must cap at the limit")
	}
}

func TestTokenBucket_PerKeyIsolation(t *testing.T) {
	b, _ := newTestBucket(1, 60)

	if d := b.Allow("a"); !d.Allowed {
		t.Fatal("first request for a should pass")
	}
	if d := b.Allow("a"); d.Allowed {
		t.Fatal("a is exhausted")
	}
	if d := b.Allow("b"); !d.Allowed {
		t.Fatal("b has its own bucket")
	}
}

func TestTokenBucket_Sweep(t *testing.T) {
	b, clock := newTestBucket(10, 60)

	for i := 0; i < 5; i++ {
		b.Allow(fmt.Sprintf("client-%d", i))
	}
	if b.Len() != 5 {
		t.Fatalf("expected 5 tracked keys, got %d", b.Len())
	}

	*clock = clock.Add(2 * time.Minute)
	b.Allow("client-0") // refresh one key

	*clock = clock.Add(2 * time.Minute)
	// client-0 was seen 2m ago, the rest 4m ago; the cutoff is 3 windows.
	if evicted := b.Sweep(); evicted != 4 {
		t.Errorf("expected 4 evictions, got %d", evicted)
	}
	if b.Len() != 1 {
		t.Errorf("expected 1 surviving key, got %d", b.Len())
	}
}

func TestTokenBucket_Tokens(t *testing.T) {
	b, _ := newTestBucket(10, 60)

	if _, _, ok := b.Tokens("client"); ok {
		t.Fatal("unknown key should report no state")
	}

	b.Allow("client")
	tokens, _, ok := b.Tokens("client")
	if !ok || tokens != 9 {
		t.Errorf("expected 9 tokens tracked, got %d (ok=%t)", tokens, ok)
	}
}
