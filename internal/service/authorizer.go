package service

import (
	"context"
	"errors"
	"time"

	"github.com/jsbattig/code-indexer-sub037/internal/domain"
	"github.com/jsbattig/code-indexer-sub037/internal/observability"
	"github.com/jsbattig/code-indexer-sub037/internal/security"
)

type CapabilityKind string

const (
	CapabilityTool CapabilityKind = "mcp_tool"
	CapabilityREST CapabilityKind = "rest"
)

// Capability names something a caller wants to invoke. Tool capabilities are
// checked against the tool registry; REST capabilities are a plain role
// comparison.
type Capability struct {
	Kind         CapabilityKind
	Name         string
	RequiredRole domain.Role
}

func ToolCapability(name string) Capability {
	return Capability{Kind: CapabilityTool, Name: name}
}

func RESTCapability(name string, required domain.Role) Capability {
	return Capability{Kind: CapabilityREST, Name: name, RequiredRole: required}
}

// TokenPair is the bearer-token counterpart of a cookie session. Both tokens
// are bound to the session that minted them.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Authorizer is the single decision surface request handlers consume. No
// component outside it re-implements a trust decision: handlers ask who the
// caller is and whether a capability is granted, and the facade composes the
// session store, rotation guard, rate limiters and tool registry into those
// answers. Failures surface as the taxonomy sentinels in errors.go and are
// converted to the HTTP contract at the handler boundary, never above it.
type Authorizer struct {
	users    UserDirectory
	verifier CredentialVerifier
	sessions *SessionStore
	rotation *RotationGuard
	tools    *ToolRegistry
	jwt      *security.JWTManager

	passwordLimiter Limiter
	refreshLimiter  Limiter

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthorizer(
	users UserDirectory,
	verifier CredentialVerifier,
	sessions *SessionStore,
	rotation *RotationGuard,
	tools *ToolRegistry,
	jwtMgr *security.JWTManager,
	passwordLimiter Limiter,
	refreshLimiter Limiter,
	accessTTL, refreshTTL time.Duration,
) *Authorizer {
	return &Authorizer{
		users:           users,
		verifier:        verifier,
		sessions:        sessions,
		rotation:        rotation,
		tools:           tools,
		jwt:             jwtMgr,
		passwordLimiter: passwordLimiter,
		refreshLimiter:  refreshLimiter,
		accessTTL:       accessTTL,
		refreshTTL:      refreshTTL,
	}
}

// Authenticate verifies credentials and opens a session. Every failure mode
// collapses into ErrUnauthorized so callers cannot probe which usernames
// exist or which sessions were revoked.
func (a *Authorizer) Authenticate(ctx context.Context, username, password string) (*domain.Session, error) {
	user, err := a.users.GetUser(ctx, username)
	if err != nil {
		observability.RecordAuthLogin("rejected")
		return nil, ErrUnauthorized
	}
	if err := a.verifier.Verify(user.PasswordHash, password); err != nil {
		observability.RecordAuthLogin("rejected")
		return nil, ErrUnauthorized
	}
	sess, err := a.sessions.CreateSession(user.Username, user.Role)
	if err != nil {
		observability.RecordAuthLogin("error")
		return nil, err
	}
	observability.RecordAuthLogin("success")
	return sess, nil
}

// ValidateSession resolves a session identifier for request middleware.
func (a *Authorizer) ValidateSession(sessionID string) (*domain.Session, error) {
	return a.sessions.Validate(sessionID)
}

// ValidateBearer resolves a bearer access token to its backing session. The
// token alone is never enough: the session it was minted for must still be
// valid, which also enforces credential rotation on bearer callers.
func (a *Authorizer) ValidateBearer(raw string) (*domain.Session, error) {
	claims, err := a.jwt.ParseAccessToken(raw)
	if err != nil {
		return nil, ErrUnauthorized
	}
	sess, err := a.sessions.Validate(claims.ID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if sess.Username != claims.Subject {
		return nil, ErrUnauthorized
	}
	return sess, nil
}

// VerifyCSRF checks a submitted CSRF token for a state-changing request.
func (a *Authorizer) VerifyCSRF(sessionID, submitted string) bool {
	return a.sessions.VerifyCSRF(sessionID, submitted)
}

// Authorize decides whether the session's role grants the capability.
func (a *Authorizer) Authorize(sess *domain.Session, capability Capability) error {
	if sess == nil {
		return ErrUnauthorized
	}
	switch capability.Kind {
	case CapabilityTool:
		return a.tools.Authorize(capability.Name, sess.Role)
	case CapabilityREST:
		if !sess.Role.Satisfies(capability.RequiredRole) {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

// ListToolsFor returns the tool definitions the session's role may invoke.
func (a *Authorizer) ListToolsFor(sess *domain.Session) []domain.ToolDefinition {
	if sess == nil {
		return nil
	}
	return a.tools.FilterByRole(sess.Role)
}

// IssueTokens mints a bearer access/refresh pair bound to the session.
func (a *Authorizer) IssueTokens(sess *domain.Session) (*TokenPair, error) {
	access, err := a.jwt.SignAccessToken(sess.Username, sess.Role.String(), sess.ID, a.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := a.jwt.SignRefreshToken(sess.Username, sess.ID, a.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh redeems a refresh token for a new pair. Redemption is rate limited
// per subject and rejects tokens issued before the subject's latest
// credential change, mirroring session validation.
func (a *Authorizer) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := a.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		observability.RecordAuthRefresh("rejected")
		return nil, ErrUnauthorized
	}
	decision, err := a.refreshLimiter.CheckAndRecord(ctx, claims.Subject)
	if err != nil {
		observability.RecordAuthRefresh("limiter_error")
		return nil, &RateLimitedError{RetryAfter: time.Second}
	}
	if !decision.Allowed {
		observability.RecordAuthRefresh("rate_limited")
		return nil, &RateLimitedError{RetryAfter: decision.RetryAfter}
	}
	if claims.IssuedAt != nil && a.rotation.InvalidatedSince(claims.Subject, claims.IssuedAt.Time) {
		observability.RecordAuthRefresh("rejected")
		return nil, ErrUnauthorized
	}
	sess, err := a.sessions.Validate(claims.ID)
	if err != nil || sess.Username != claims.Subject {
		observability.RecordAuthRefresh("rejected")
		return nil, ErrUnauthorized
	}
	pair, err := a.IssueTokens(sess)
	if err != nil {
		observability.RecordAuthRefresh("error")
		return nil, err
	}
	observability.RecordAuthRefresh("success")
	return pair, nil
}

// ChangePassword verifies the current password, delegates storage of the new
// one to the user-management collaborator and records the rotation, which
// invalidates every session and refresh token the user held. Attempts are
// rate limited per username.
func (a *Authorizer) ChangePassword(ctx context.Context, sess *domain.Session, currentPassword, newPassword string) error {
	if sess == nil {
		return ErrUnauthorized
	}
	decision, err := a.passwordLimiter.CheckAndRecord(ctx, sess.Username)
	if err != nil {
		return &RateLimitedError{RetryAfter: time.Second}
	}
	if !decision.Allowed {
		return &RateLimitedError{RetryAfter: decision.RetryAfter}
	}
	user, err := a.users.GetUser(ctx, sess.Username)
	if err != nil {
		return ErrUnauthorized
	}
	if err := a.verifier.Verify(user.PasswordHash, currentPassword); err != nil {
		return ErrUnauthorized
	}
	if err := a.users.UpdatePassword(ctx, sess.Username, newPassword); err != nil {
		return err
	}
	a.rotation.RecordPasswordChange(sess.Username)
	a.sessions.InvalidateAllForUser(sess.Username)
	return nil
}

// Logout revokes the session. Idempotent.
func (a *Authorizer) Logout(sessionID string) {
	a.sessions.Invalidate(sessionID)
}

// IsUnauthorized reports whether err maps to the uniform 401 response.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
