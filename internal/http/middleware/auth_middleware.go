package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/jsbattig/code-indexer-sub037/internal/domain"
	"github.com/jsbattig/code-indexer-sub037/internal/http/response"
	"github.com/jsbattig/code-indexer-sub037/internal/security"
	"github.com/jsbattig/code-indexer-sub037/internal/service"
)

type contextKey string

const (
	SessionContextKey contextKey = "session"
)

// SessionAuth resolves the caller's session from the session cookie or a
// bearer access token and stores it in the request context. Rejections are
// uniform: the response never reveals whether the credential was unknown,
// expired or revoked.
func SessionAuth(authz *service.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess *domain.Session
			var err error

			if cookie := security.GetCookie(r, security.SessionCookieName); cookie != "" {
				sess, err = authz.ValidateSession(cookie)
			} else if raw := bearerToken(r); raw != "" {
				sess, err = authz.ValidateBearer(raw)
			} else {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
				return
			}
			if err != nil {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
				return
			}
			ctx := context.WithValue(r.Context(), SessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(SessionContextKey).(*domain.Session)
	return s, ok
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
