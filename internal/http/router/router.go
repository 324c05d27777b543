package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jsbattig/code-indexer-sub037/internal/domain"
	"github.com/jsbattig/code-indexer-sub037/internal/http/handler"
	"github.com/jsbattig/code-indexer-sub037/internal/http/middleware"
	"github.com/jsbattig/code-indexer-sub037/internal/http/response"
	"github.com/jsbattig/code-indexer-sub037/internal/service"
)

type Dependencies struct {
	Authorizer      *service.Authorizer
	AuthHandler     *handler.AuthHandler
	OAuthHandler    *handler.OAuthHandler
	ToolHandler     *handler.ToolHandler
	PasswordLimiter *middleware.RateLimit
	RefreshLimiter  *middleware.RateLimit
	EnableOTelHTTP  bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", dep.AuthHandler.Login)
			if dep.RefreshLimiter != nil {
				r.With(dep.RefreshLimiter.Middleware()).Post("/refresh", dep.AuthHandler.Refresh)
			} else {
				r.Post("/refresh", dep.AuthHandler.Refresh)
			}
			r.Group(func(r chi.Router) {
				r.Use(middleware.SessionAuth(dep.Authorizer))
				r.Use(middleware.CSRF(dep.Authorizer))
				r.Post("/logout", dep.AuthHandler.Logout)
				changePasswordChain := []func(http.Handler) http.Handler{}
				if dep.PasswordLimiter != nil {
					changePasswordChain = append(changePasswordChain, dep.PasswordLimiter.Middleware())
				}
				r.With(changePasswordChain...).Post("/change-password", dep.AuthHandler.ChangePassword)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(dep.Authorizer))
			r.Get("/tools", dep.ToolHandler.List)
			r.Post("/tools/{tool}/authorize", dep.ToolHandler.Authorize)
		})

		r.Route("/oauth", func(r chi.Router) {
			r.Use(middleware.SessionAuth(dep.Authorizer))
			r.Use(middleware.CSRF(dep.Authorizer))
			r.Post("/register", dep.OAuthHandler.Register)
			r.With(middleware.RequireRole(dep.Authorizer, "oauth.clients.read", domain.RolePowerUser)).
				Get("/clients/{client_id}", dep.OAuthHandler.GetClient)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
