package middleware

import (
	"net/http"

	"github.com/jsbattig/code-indexer-sub037/internal/http/response"
	"github.com/jsbattig/code-indexer-sub037/internal/security"
	"github.com/jsbattig/code-indexer-sub037/internal/service"
)

const csrfHeader = "X-CSRF-Token"

// CSRF guards state-changing requests made with a session cookie: the
// X-CSRF-Token header must match the session's stored token. Bearer-token
// requests are exempt since no cookie is sent ambiently for them. Must run
// after SessionAuth.
func CSRF(authz *service.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			cookie := security.GetCookie(r, security.SessionCookieName)
			if cookie == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !authz.VerifyCSRF(cookie, r.Header.Get(csrfHeader)) {
				response.Error(w, r, http.StatusForbidden, "CSRF_INVALID", "missing or invalid csrf token", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
