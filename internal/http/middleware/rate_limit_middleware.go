package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jsbattig/code-indexer-sub037/internal/http/response"
	"github.com/jsbattig/code-indexer-sub037/internal/service"
)

// RateLimit wraps a named limiter instance as HTTP middleware. The key
// function should yield a per-subject key (session username when available,
// client IP otherwise) so one subject cannot lock out another. Limiter
// backend errors deny the request: this layer fails closed.
type RateLimit struct {
	limiter service.Limiter
	scope   string
	keyFunc func(r *http.Request) string
}

func NewRateLimit(limiter service.Limiter, scope string, keyFunc func(r *http.Request) string) *RateLimit {
	if keyFunc == nil {
		keyFunc = clientIPKey
	}
	return &RateLimit{limiter: limiter, scope: scope, keyFunc: keyFunc}
}

func (rl *RateLimit) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.keyFunc(r)
			if key == "" {
				key = clientIPKey(r)
			}
			decision, err := rl.limiter.CheckAndRecord(r.Context(), key)
			if err != nil {
				slog.Warn("rate limiter backend unavailable, denying request",
					"scope", rl.scope,
					"error", err.Error(),
				)
				response.RateLimited(w, r, time.Second)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", max(decision.Remaining, 0)))
			if !decision.Allowed {
				response.RateLimited(w, r, decision.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SubjectOrIPKeyFunc keys by the authenticated session's username when
// SessionAuth has already run, falling back to the client IP.
func SubjectOrIPKeyFunc() func(r *http.Request) string {
	return func(r *http.Request) string {
		if sess, ok := SessionFromContext(r.Context()); ok {
			return "sub:" + sess.Username
		}
		return clientIPKey(r)
	}
}

func clientIPKey(r *http.Request) string {
	return "ip:" + r.RemoteAddr
}
