package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jsbattig/code-indexer-sub037/internal/http/middleware"
	"github.com/jsbattig/code-indexer-sub037/internal/http/response"
	"github.com/jsbattig/code-indexer-sub037/internal/observability"
	"github.com/jsbattig/code-indexer-sub037/internal/security"
	"github.com/jsbattig/code-indexer-sub037/internal/service"
)

// AuthHandler converts facade decisions into the HTTP contract. All trust
// decisions live behind the facade; this layer only shapes requests and
// responses.
type AuthHandler struct {
	authz      *service.Authorizer
	publicHost string
	sessionTTL time.Duration
}

func NewAuthHandler(authz *service.Authorizer, publicHost string, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{authz: authz, publicHost: publicHost, sessionTTL: sessionTTL}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Username  string             `json:"username"`
	Role      string             `json:"role"`
	CSRFToken string             `json:"csrf_token"`
	Tokens    *service.TokenPair `json:"tokens"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	sess, err := h.authz.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	tokens, err := h.authz.IssueTokens(sess)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "token issuance failed", nil)
		return
	}
	security.SetSessionCookie(w, h.publicHost, sess.ID, h.sessionTTL)
	observability.Audit(r, "auth.login", "username", sess.Username)
	response.JSON(w, r, http.StatusOK, loginResponse{
		Username:  sess.Username,
		Role:      sess.Role.String(),
		CSRFToken: sess.CSRFToken,
		Tokens:    tokens,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie := security.GetCookie(r, security.SessionCookieName); cookie != "" {
		h.authz.Logout(cookie)
	} else if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		h.authz.Logout(sess.ID)
	}
	security.ClearSessionCookie(w, h.publicHost)
	observability.Audit(r, "auth.logout")
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	pair, err := h.authz.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	observability.Audit(r, "auth.refresh")
	response.JSON(w, r, http.StatusOK, pair)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
		return
	}
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	if err := h.authz.ChangePassword(r.Context(), sess, req.CurrentPassword, req.NewPassword); err != nil {
		writeAuthError(w, r, err)
		return
	}
	// every session the user held is now stale, including this one
	security.ClearSessionCookie(w, h.publicHost)
	observability.Audit(r, "auth.password_change", "username", sess.Username)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "password_changed"})
}

// writeAuthError maps the facade error taxonomy onto the response contract.
// Nothing above this boundary sees the taxonomy as exceptions.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var rateLimited *service.RateLimitedError
	switch {
	case errors.As(err, &rateLimited):
		response.RateLimited(w, r, rateLimited.RetryAfter)
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient role", nil)
	case service.IsUnauthorized(err):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
