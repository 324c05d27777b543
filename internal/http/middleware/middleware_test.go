package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jsbattig/code-indexer-sub037/internal/domain"
	"github.com/jsbattig/code-indexer-sub037/internal/security"
	"github.com/jsbattig/code-indexer-sub037/internal/service"
)

type stubUsers struct{ users map[string]*domain.User }

func (s *stubUsers) GetUser(_ context.Context, username string) (*domain.User, error) {
	user, ok := s.users[username]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *user
	return &copied, nil
}

func (s *stubUsers) UpdatePassword(_ context.Context, username, newPassword string) error {
	user, ok := s.users[username]
	if !ok {
		return errors.New("not found")
	}
	user.PasswordHash = newPassword
	return nil
}

type plainVerifier struct{}

func (plainVerifier) Verify(hash, password string) error {
	if hash != password {
		return security.ErrPasswordMismatch
	}
	return nil
}

func newAuthorizerForTest(t *testing.T) *service.Authorizer {
	t.Helper()

	clock := service.SystemClock()
	rotation := service.NewRotationGuard(clock)
	sessions := service.NewSessionStore(clock, time.Hour, rotation)
	tools, err := service.NewToolRegistry(service.DefaultToolCatalog())
	if err != nil {
		t.Fatalf("build tool registry: %v", err)
	}
	users := &stubUsers{users: map[string]*domain.User{
		"alice": {Username: "alice", Role: domain.RoleNormalUser, PasswordHash: "alice-password"},
		"root":  {Username: "root", Role: domain.RoleAdmin, PasswordHash: "root-password"},
	}}
	jwtMgr := security.NewJWTManager("authcore-test", "authcore-api", "access-secret", "refresh-secret")
	return service.NewAuthorizer(
		users,
		plainVerifier{},
		sessions,
		rotation,
		tools,
		jwtMgr,
		service.NewWindowLimiter("password_change", service.RateLimitConfig{MaxAttempts: 3, Window: time.Minute}, clock),
		service.NewWindowLimiter("refresh", service.RateLimitConfig{MaxAttempts: 5, Window: time.Minute}, clock),
		15*time.Minute,
		24*time.Hour,
	)
}

func login(t *testing.T, authz *service.Authorizer, username, password string) *domain.Session {
	t.Helper()

	sess, err := authz.Authenticate(context.Background(), username, password)
	if err != nil {
		t.Fatalf("authenticate %s: %v", username, err)
	}
	return sess
}

func echoSessionHandler(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			t.Errorf("handler reached without a session in context")
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestSessionAuthWithCookie(t *testing.T) {
	authz := newAuthorizerForTest(t)
	sess := login(t, authz, "alice", "alice-password")
	h := SessionAuth(authz)(echoSessionHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: sess.ID})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
}

func TestSessionAuthWithBearer(t *testing.T) {
	authz := newAuthorizerForTest(t)
	sess := login(t, authz, "alice", "alice-password")
	pair, err := authz.IssueTokens(sess)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	h := SessionAuth(authz)(echoSessionHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
}

func TestSessionAuthRejectionsAreUniform(t *testing.T) {
	authz := newAuthorizerForTest(t)
	sess := login(t, authz, "alice", "alice-password")
	authz.Logout(sess.ID)

	h := SessionAuth(authz)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("handler must not run for rejected requests")
	}))

	build := func(mutate func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil)
		mutate(req)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	missing := build(func(r *http.Request) {})
	unknown := build(func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: "garbage"})
	})
	revoked := build(func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: sess.ID})
	})
	badBearer := build(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-token")
	})

	var first string
	for name, w := range map[string]*httptest.ResponseRecorder{
		"missing": missing, "unknown": unknown, "revoked": revoked, "bad bearer": badBearer,
	} {
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s credential: status = %d, want 401", name, w.Code)
		}
		var body struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s credential: decode body: %v", name, err)
		}
		payload := body.Error.Code + "/" + body.Error.Message
		if first == "" {
			first = payload
		} else if payload != first {
			t.Fatalf("%s credential: rejection payload %q differs from %q", name, payload, first)
		}
	}
}

func TestCSRFProtectsCookieRequests(t *testing.T) {
	authz := newAuthorizerForTest(t)
	sess := login(t, authz, "alice", "alice-password")

	h := SessionAuth(authz)(CSRF(authz)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	// Mutating request with the cookie but no CSRF header is rejected.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: sess.ID})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("missing CSRF header: status = %d, want 403", w.Code)
	}

	// Same request with the session's token passes.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: sess.ID})
	req.Header.Set("X-CSRF-Token", sess.CSRFToken)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("valid CSRF token: status = %d, want 204", w.Code)
	}

	// GET is exempt.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: sess.ID})
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("GET with cookie: status = %d, want 204", w.Code)
	}
}

func TestCSRFExemptsBearerRequests(t *testing.T) {
	authz := newAuthorizerForTest(t)
	sess := login(t, authz, "alice", "alice-password")
	pair, err := authz.IssueTokens(sess)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	h := SessionAuth(authz)(CSRF(authz)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("bearer request must not need a CSRF token: status = %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	authz := newAuthorizerForTest(t)
	alice := login(t, authz, "alice", "alice-password")
	admin := login(t, authz, "root", "root-password")

	h := SessionAuth(authz)(RequireRole(authz, "users.manage", domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: alice.ID})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("normal user on an admin route: status = %d, want 403", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: admin.ID})
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("admin on an admin route: status = %d, want 204", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	clock := service.SystemClock()
	limiter := service.NewWindowLimiter("password_change", service.RateLimitConfig{MaxAttempts: 2, Window: time.Minute}, clock)
	rl := NewRateLimit(limiter, "password_change", nil)

	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/change-password", nil)
		req.RemoteAddr = "10.1.2.3:4444"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	if w := send(); w.Code != http.StatusNoContent {
		t.Fatalf("first request: status = %d", w.Code)
	}
	if w := send(); w.Code != http.StatusNoContent {
		t.Fatalf("second request: status = %d", w.Code)
	}

	w := send()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("429 response must carry a Retry-After header")
	}
}

type failingLimiter struct{}

func (failingLimiter) CheckAndRecord(context.Context, string) (service.Decision, error) {
	return service.Decision{}, errors.New("backend down")
}

func (failingLimiter) Reset(context.Context) error { return nil }

func TestRateLimitFailsClosed(t *testing.T) {
	rl := NewRateLimit(failingLimiter{}, "refresh", nil)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("handler must not run when the limiter backend fails")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("limiter backend failure: status = %d, want 429", w.Code)
	}
}
