package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Client is the composite identity a rate-limit quota is scoped to:
// IP x organization, plus the user when authenticated.
type Client struct {
	IP     string
	OrgID  string
	UserID string
}

// Key renders the client identity as the state key shared by both backends.
func (c Client) Key() string {
	org := c.OrgID
	if org == "" {
		org = "default"
	}
	key := "rate_limit:" + c.IP + ":" + org
	if c.UserID != "" {
		key += ":" + c.UserID
	}
	return key
}

// Info is the best-effort introspection view of a client's quota. It is
// always populated; a backend error only fills the Error field.
type Info struct {
	ClientKey            string     `json:"client_id"`
	RateLimit            int        `json:"rate_limit"`
	WindowSize           int        `json:"window_size"`
	Backend              Backend    `json:"backend"`
	DistributedAvailable bool       `json:"distributed_available"`
	CurrentRequests      *int64     `json:"current_requests,omitempty"`
	RemainingRequests    *int64     `json:"remaining_requests,omitempty"`
	CurrentTokens        *int       `json:"current_tokens,omitempty"`
	LastRefill           *time.Time `json:"last_refill,omitempty"`
	Error                string     `json:"error,omitempty"`
}

// Config holds limiter settings.
type Config struct {
	Limit         int           // requests allowed per window
	Window        int           // window size in seconds
	ProbeInterval time.Duration // how often Local mode re-probes the backend
	OpTimeout     time.Duration // bound on distributed-counter calls
}

// DefaultConfig returns limiter settings matching the service defaults.
func DefaultConfig() Config {
	return Config{
		Limit:         100,
		Window:        60,
		ProbeInterval: 30 * time.Second,
		OpTimeout:     2 * time.Second,
	}
}

type limiterState int

const (
	stateUnknown limiterState = iota
	stateDistributed
	stateLocal
)

// Limiter arbitrates between the distributed sliding-window counter and the
// local token bucket. Distributed is preferred whenever reachable; Local is
// the permanent safety net, so the backend being down can never make the API
// unlimited or unavailable.
type Limiter struct {
	cfg     Config
	bucket  *TokenBucket
	counter *SlidingWindow // nil when no distributed backend is configured
	logger  zerolog.Logger

	// probeMu guards the state machine so only one concurrent connection
	// attempt is made; everyone else treats its outcome as authoritative.
	probeMu   sync.Mutex
	state     limiterState
	lastProbe time.Time
	now       func() time.Time
}

// New creates a hybrid limiter. A nil counter disables the distributed path.
func New(cfg Config, counter *SlidingWindow, logger zerolog.Logger) *Limiter {
	return &Limiter{
		cfg:     cfg,
		bucket:  NewTokenBucket(cfg.Limit, cfg.Window),
		counter: counter,
		logger:  logger.With().Str("component", "rate_limiter").Logger(),
		now:     time.Now,
	}
}

// Decide checks the client against the preferred backend and returns a
// structured decision. Backend failures are absorbed: the call transparently
// falls back to the local bucket for this and subsequent requests until
// connectivity is re-verified.
func (l *Limiter) Decide(ctx context.Context, client Client) Decision {
	key := client.Key()

	if l.backend(ctx) == BackendDistributed {
		d, err := l.counter.Allow(ctx, key)
		if err == nil {
			return d
		}
		l.markUnavailable(err)
	}

	return l.bucket.Allow(key)
}

// Introspect reports the client's current quota state. It never fails the
// request; on backend error it reports what it can.
func (l *Limiter) Introspect(ctx context.Context, client Client) Info {
	key := client.Key()
	backend := l.backend(ctx)

	info := Info{
		ClientKey:            key,
		RateLimit:            l.cfg.Limit,
		WindowSize:           l.cfg.Window,
		Backend:              backend,
		DistributedAvailable: backend == BackendDistributed,
	}

	if backend == BackendDistributed {
		count, err := l.counter.Count(ctx, key)
		if err != nil {
			info.Error = err.Error()
			return info
		}
		remaining := int64(l.cfg.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		info.CurrentRequests = &count
		info.RemainingRequests = &remaining
		return info
	}

	if tokens, lastRefill, ok := l.bucket.Tokens(key); ok {
		info.CurrentTokens = &tokens
		info.LastRefill = &lastRefill
	}
	return info
}

// backend resolves the active backend, probing the distributed counter on
// first use and re-probing from Local mode once per probe interval.
func (l *Limiter) backend(ctx context.Context) Backend {
	if l.counter == nil {
		return BackendLocal
	}

	l.probeMu.Lock()
	defer l.probeMu.Unlock()

	switch l.state {
	case stateDistributed:
		return BackendDistributed
	case stateLocal:
		if l.now().Sub(l.lastProbe) < l.cfg.ProbeInterval {
			return BackendLocal
		}
	}

	l.lastProbe = l.now()
	if err := l.counter.Ping(ctx); err != nil {
		if l.state != stateLocal {
			l.logger.Warn().Err(err).Msg("distributed rate-limit backend unreachable, using local token bucket")
		}
		l.state = stateLocal
		return BackendLocal
	}

	if l.state != stateDistributed {
		l.logger.Info().Msg("distributed rate-limit backend reachable")
	}
	l.state = stateDistributed
	return BackendDistributed
}

// markUnavailable transitions to Local after an operational failure. The
// warning is logged once per transition, not per request.
func (l *Limiter) markUnavailable(err error) {
	l.probeMu.Lock()
	defer l.probeMu.Unlock()

	if l.state != stateLocal {
		l.logger.Warn().Err(err).Msg("distributed rate-limit check failed, falling back to local token bucket")
	}
	l.state = stateLocal
	l.lastProbe = l.now()
}

// Close releases the local bucket's janitor.
func (l *Limiter) Close() {
	l.bucket.Close()
}
