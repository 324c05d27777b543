package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jsbattig/code-indexer-sub037/internal/domain"
	"github.com/jsbattig/code-indexer-sub037/internal/http/response"
	"github.com/jsbattig/code-indexer-sub037/internal/observability"
	"github.com/jsbattig/code-indexer-sub037/internal/repository"
	"github.com/jsbattig/code-indexer-sub037/internal/service"
)

type OAuthHandler struct {
	registry *service.OAuthClientRegistry
}

func NewOAuthHandler(registry *service.OAuthClientRegistry) *OAuthHandler {
	return &OAuthHandler{registry: registry}
}

type registerClientRequest struct {
	ClientName   string   `json:"client_name"`
	RedirectURIs []string `json:"redirect_uris"`
}

type clientView struct {
	ClientID     string   `json:"client_id"`
	ClientName   string   `json:"client_name"`
	RedirectURIs []string `json:"redirect_uris"`
	CreatedAt    string   `json:"created_at"`
}

func (h *OAuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	client, err := h.registry.RegisterClient(r.Context(), req.ClientName, req.RedirectURIs)
	if err != nil {
		var regErr *service.ClientRegistrationError
		if errors.As(err, &regErr) {
			response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", regErr.Reason, map[string]string{"field": regErr.Field})
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "registration failed", nil)
		return
	}
	observability.Audit(r, "oauth.client_registered", "client_id", client.ClientID)
	view, err := newClientView(client)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "registration failed", nil)
		return
	}
	response.JSON(w, r, http.StatusCreated, view)
}

func (h *OAuthHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "client_id")
	client, err := h.registry.GetClient(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "oauth client not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "lookup failed", nil)
		return
	}
	view, err := newClientView(client)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "lookup failed", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, view)
}

func newClientView(client *domain.OAuthClient) (*clientView, error) {
	uris, err := client.RedirectURIList()
	if err != nil {
		return nil, err
	}
	return &clientView{
		ClientID:     client.ClientID,
		ClientName:   client.ClientName,
		RedirectURIs: uris,
		CreatedAt:    client.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}
