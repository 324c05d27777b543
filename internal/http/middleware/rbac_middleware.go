package middleware

import (
	"net/http"

	"github.com/jsbattig/code-indexer-sub037/internal/domain"
	"github.com/jsbattig/code-indexer-sub037/internal/http/response"
	"github.com/jsbattig/code-indexer-sub037/internal/service"
)

// RequireRole gates a route group on the facade's REST capability check.
// Must run after SessionAuth.
func RequireRole(authz *service.Authorizer, capability string, required domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
				return
			}
			if err := authz.Authorize(sess, service.RESTCapability(capability, required)); err != nil {
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient role", map[string]string{"required": required.String()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
