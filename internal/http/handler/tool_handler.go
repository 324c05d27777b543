package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jsbattig/code-indexer-sub037/internal/http/middleware"
	"github.com/jsbattig/code-indexer-sub037/internal/http/response"
	"github.com/jsbattig/code-indexer-sub037/internal/service"
)

type ToolHandler struct {
	authz *service.Authorizer
}

func NewToolHandler(authz *service.Authorizer) *ToolHandler {
	return &ToolHandler{authz: authz}
}

// List returns the tool definitions the caller's role may invoke, in fixed
// registration order.
func (h *ToolHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, h.authz.ListToolsFor(sess))
}

// Authorize re-checks permission for a single named tool. Invocation paths
// call this even for tools that appeared in the caller's listing, so a
// client calling an unlisted tool directly gains nothing.
func (h *ToolHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
		return
	}
	name := chi.URLParam(r, "tool")
	if err := h.authz.Authorize(sess, service.ToolCapability(name)); err != nil {
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "tool not permitted", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"tool": name, "status": "granted"})
}
