package service

import (
	"sync"
	"time"
)

// RotationGuard records the most recent credential change per user. A single
// write here invalidates every session and refresh token issued before the
// change, because session validation consults this map on every request.
// The map only grows: a recorded change is never rolled back.
type RotationGuard struct {
	mu      sync.RWMutex
	clock   Clock
	changed map[string]time.Time
}

func NewRotationGuard(clock Clock) *RotationGuard {
	if clock == nil {
		clock = SystemClock()
	}
	return &RotationGuard{clock: clock, changed: make(map[string]time.Time)}
}

// RecordPasswordChange marks now as the user's latest credential change.
// Timestamps are monotonic per user; an earlier clock reading never
// overwrites a later one.
func (g *RotationGuard) RecordPasswordChange(username string) {
	now := g.clock.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	if prev, ok := g.changed[username]; ok && prev.After(now) {
		return
	}
	g.changed[username] = now
}

// InvalidatedSince reports whether credentials issued at createdAt are stale.
// A tie between issuance and rotation resolves to invalid.
func (g *RotationGuard) InvalidatedSince(username string, createdAt time.Time) bool {
	g.mu.RLock()
	changedAt, ok := g.changed[username]
	g.mu.RUnlock()
	if !ok {
		return false
	}
	return !createdAt.After(changedAt)
}

// Reset clears all recorded changes. Test and administrative use only.
func (g *RotationGuard) Reset() {
	g.mu.Lock()
	g.changed = make(map[string]time.Time)
	g.mu.Unlock()
}
