package service

import (
	"context"
	"sync"
	"time"

	"github.com/jsbattig/code-indexer-sub037/internal/observability"
)

// Decision is the outcome of one rate-limit check. RetryAfter is only
// meaningful when Allowed is false.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimitConfig configures one limiter instance. Instances are independent:
// the password-change limiter and the refresh limiter share neither
// configuration nor key space.
type RateLimitConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// Limiter bounds sensitive operations per key within a time window. Keys are
// per-subject so one subject's abuse cannot lock out another.
type Limiter interface {
	CheckAndRecord(ctx context.Context, key string) (Decision, error)
	Reset(ctx context.Context) error
}

// WindowLimiter is the in-memory fixed-window limiter. Attempt timestamps
// are pruned lazily on access and the retained list per key never exceeds
// MaxAttempts, since an attempt is only recorded when it is allowed. State
// does not survive a restart, which trades lockout durability for a limiter
// that never blocks the request path on I/O.
type WindowLimiter struct {
	mu      sync.Mutex
	scope   string
	cfg     RateLimitConfig
	clock   Clock
	entries map[string][]time.Time
}

func NewWindowLimiter(scope string, cfg RateLimitConfig, clock Clock) *WindowLimiter {
	if clock == nil {
		clock = SystemClock()
	}
	return &WindowLimiter{
		scope:   scope,
		cfg:     normalizeRateLimitConfig(cfg),
		clock:   clock,
		entries: make(map[string][]time.Time),
	}
}

// CheckAndRecord prunes, checks and records as one atomic unit.
func (l *WindowLimiter) CheckAndRecord(_ context.Context, key string) (Decision, error) {
	now := l.clock.Now()
	cutoff := now.Add(-l.cfg.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[key][:0]
	for _, at := range l.entries[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= l.cfg.MaxAttempts {
		l.entries[key] = kept
		retryAfter := kept[0].Add(l.cfg.Window).Sub(now)
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		observability.RecordRateLimitDecision(l.scope, "deny")
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
	}

	kept = append(kept, now)
	l.entries[key] = kept
	observability.RecordRateLimitDecision(l.scope, "allow")
	return Decision{Allowed: true, Remaining: l.cfg.MaxAttempts - len(kept)}, nil
}

// Reset clears all keys. Test and administrative use only.
func (l *WindowLimiter) Reset(context.Context) error {
	l.mu.Lock()
	l.entries = make(map[string][]time.Time)
	l.mu.Unlock()
	return nil
}

func normalizeRateLimitConfig(cfg RateLimitConfig) RateLimitConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return cfg
}
