package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jsbattig/code-indexer-sub037/internal/domain"
	"github.com/jsbattig/code-indexer-sub037/internal/observability"
	"github.com/jsbattig/code-indexer-sub037/internal/repository"
)

// OAuthClientRegistry validates and persists OAuth client registrations. It
// owns its backing store: the constructor opens it, Close releases it.
// Client identifiers come from a collision-resistant random source so
// concurrent registration is safe even when the store is shared across
// processes.
type OAuthClientRegistry struct {
	db    *gorm.DB
	repo  repository.OAuthClientRepository
	clock Clock
}

func NewOAuthClientRegistry(driver, dsn string, clock Clock) (*OAuthClientRegistry, error) {
	db, err := repository.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	return NewOAuthClientRegistryFromDB(db, clock), nil
}

// NewOAuthClientRegistryFromDB wraps an already-open store, for callers that
// share one connection across repositories.
func NewOAuthClientRegistryFromDB(db *gorm.DB, clock Clock) *OAuthClientRegistry {
	if clock == nil {
		clock = SystemClock()
	}
	return &OAuthClientRegistry{
		db:    db,
		repo:  repository.NewOAuthClientRepository(db),
		clock: clock,
	}
}

// RegisterClient validates the registration and persists a new record.
// Re-registration of the same name always produces a new client; records
// are never mutated in place.
func (r *OAuthClientRegistry) RegisterClient(ctx context.Context, clientName string, redirectURIs []string) (*domain.OAuthClient, error) {
	name := strings.TrimSpace(clientName)
	if name == "" {
		observability.RecordClientRegistration("invalid")
		return nil, &ClientRegistrationError{Field: "client_name", Reason: "client_name must not be empty"}
	}
	if len(redirectURIs) == 0 {
		observability.RecordClientRegistration("invalid")
		return nil, &ClientRegistrationError{Field: "redirect_uris", Reason: "at least one redirect URI is required"}
	}
	for _, raw := range redirectURIs {
		if err := validateRedirectURI(raw); err != nil {
			observability.RecordClientRegistration("invalid")
			return nil, &ClientRegistrationError{Field: "redirect_uris", Reason: err.Error()}
		}
	}

	client := &domain.OAuthClient{
		ClientID:   uuid.NewString(),
		ClientName: name,
		CreatedAt:  r.clock.Now(),
	}
	if err := client.SetRedirectURIs(redirectURIs); err != nil {
		observability.RecordClientRegistration("error")
		return nil, fmt.Errorf("encode redirect uris: %w", err)
	}
	if err := r.repo.Create(ctx, client); err != nil {
		observability.RecordClientRegistration("error")
		return nil, fmt.Errorf("persist oauth client: %w", err)
	}
	observability.RecordClientRegistration("registered")
	return client, nil
}

func (r *OAuthClientRegistry) GetClient(ctx context.Context, clientID string) (*domain.OAuthClient, error) {
	return r.repo.FindByClientID(ctx, clientID)
}

// Close releases the backing store connection.
func (r *OAuthClientRegistry) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func validateRedirectURI(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed != raw {
		return fmt.Errorf("redirect URI %q must not be empty or padded with whitespace", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("redirect URI %q is not a valid URI", raw)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("redirect URI %q must be absolute with a host", raw)
	}
	return nil
}
