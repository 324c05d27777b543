package service

import (
	"sync"
	"time"

	"github.com/jsbattig/code-indexer-sub037/internal/domain"
	"github.com/jsbattig/code-indexer-sub037/internal/observability"
	"github.com/jsbattig/code-indexer-sub037/internal/security"
)

// rotationChecker is the slice of RotationGuard the store needs: deciding
// whether a session created at a given instant predates the owner's latest
// credential change.
type rotationChecker interface {
	InvalidatedSince(username string, createdAt time.Time) bool
}

// SessionStore issues, validates and revokes sessions. All state is
// memory-resident; validation is authoritative at query time, so the
// periodic cleanup only reclaims storage and never changes an answer.
//
// A session moves Created -> Active -> {Expired | Invalidated}. Both
// terminal states are absorbing: an expired or invalidated identifier is
// rejected forever, even if resubmitted before cleanup runs.
type SessionStore struct {
	mu          sync.RWMutex
	sessions    map[string]*domain.Session
	invalidated map[string]struct{}
	userCutoff  map[string]time.Time

	clock    Clock
	ttl      time.Duration
	rotation rotationChecker
}

func NewSessionStore(clock Clock, ttl time.Duration, rotation rotationChecker) *SessionStore {
	if clock == nil {
		clock = SystemClock()
	}
	return &SessionStore{
		sessions:    make(map[string]*domain.Session),
		invalidated: make(map[string]struct{}),
		userCutoff:  make(map[string]time.Time),
		clock:       clock,
		ttl:         ttl,
		rotation:    rotation,
	}
}

// CreateSession mints a new session with a fresh identifier and CSRF token.
func (s *SessionStore) CreateSession(username string, role domain.Role) (*domain.Session, error) {
	id, err := security.NewSessionID()
	if err != nil {
		return nil, err
	}
	csrf, err := security.NewCSRFToken()
	if err != nil {
		return nil, err
	}
	sess := &domain.Session{
		ID:        id,
		Username:  username,
		Role:      role,
		CSRFToken: csrf,
		CreatedAt: s.clock.Now(),
	}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	observability.RecordSessionEvent("create")
	return cloneSession(sess), nil
}

// Validate returns the session for an identifier, or ErrUnauthorized. The
// error never distinguishes unknown, expired, revoked or rotated-out ids.
func (s *SessionStore) Validate(sessionID string) (*domain.Session, error) {
	now := s.clock.Now()
	s.mu.RLock()
	_, revoked := s.invalidated[sessionID]
	sess, known := s.sessions[sessionID]
	var cutoff time.Time
	var hasCutoff bool
	if known {
		cutoff, hasCutoff = s.userCutoff[sess.Username]
	}
	s.mu.RUnlock()

	switch {
	case revoked, !known:
		observability.RecordSessionValidation("rejected")
		return nil, ErrUnauthorized
	case now.Sub(sess.CreatedAt) >= s.ttl:
		observability.RecordSessionValidation("expired")
		return nil, ErrUnauthorized
	case hasCutoff && !sess.CreatedAt.After(cutoff):
		observability.RecordSessionValidation("rejected")
		return nil, ErrUnauthorized
	case s.rotation != nil && s.rotation.InvalidatedSince(sess.Username, sess.CreatedAt):
		observability.RecordSessionValidation("rejected")
		return nil, ErrUnauthorized
	}
	observability.RecordSessionValidation("valid")
	return cloneSession(sess), nil
}

// VerifyCSRF compares a submitted token against the session's stored token
// in constant time. An invalid session never verifies.
func (s *SessionStore) VerifyCSRF(sessionID, submitted string) bool {
	sess, err := s.Validate(sessionID)
	if err != nil {
		return false
	}
	return security.ConstantTimeEquals(sess.CSRFToken, submitted)
}

// Invalidate revokes a session prior to natural expiry. Idempotent: revoking
// twice leaves the same end state as revoking once.
func (s *SessionStore) Invalidate(sessionID string) {
	s.mu.Lock()
	s.invalidated[sessionID] = struct{}{}
	s.mu.Unlock()
	observability.RecordSessionEvent("invalidate")
}

// InvalidateAllForUser rejects every session the user holds that was created
// up to now, without enumerating live sessions: validation compares each
// session's creation time against the recorded cutoff.
func (s *SessionStore) InvalidateAllForUser(username string) {
	now := s.clock.Now()
	s.mu.Lock()
	if prev, ok := s.userCutoff[username]; !ok || now.After(prev) {
		s.userCutoff[username] = now
	}
	s.mu.Unlock()
	observability.RecordSessionEvent("invalidate_all_for_user")
}

// CleanupExpired drops expired session records and their revocation marks.
// Advisory only; Validate remains authoritative regardless of when this runs.
func (s *SessionStore) CleanupExpired() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.CreatedAt) >= s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	for id := range s.invalidated {
		if _, live := s.sessions[id]; !live {
			delete(s.invalidated, id)
		}
	}
	return removed
}

// Reset drops all state. Test and administrative use only.
func (s *SessionStore) Reset() {
	s.mu.Lock()
	s.sessions = make(map[string]*domain.Session)
	s.invalidated = make(map[string]struct{})
	s.userCutoff = make(map[string]time.Time)
	s.mu.Unlock()
}

func cloneSession(sess *domain.Session) *domain.Session {
	copied := *sess
	return &copied
}
