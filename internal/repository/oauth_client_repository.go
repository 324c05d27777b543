package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jsbattig/code-indexer-sub037/internal/domain"
	"github.com/jsbattig/code-indexer-sub037/internal/observability"
)

var ErrClientNotFound = errors.New("oauth client not found")

type OAuthClientRepository interface {
	Create(ctx context.Context, c *domain.OAuthClient) error
	FindByClientID(ctx context.Context, clientID string) (*domain.OAuthClient, error)
}

// Open dials the OAuth client store. The store is the only durable resource
// in this core and may be shared across processes; uniqueness of client
// identifiers is enforced by the unique index, not by in-process locking.
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	var db *gorm.DB
	var err error
	switch driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("unsupported auth store driver: %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open auth store: %w", err)
	}
	if err := db.AutoMigrate(&domain.OAuthClient{}, &domain.UserAccount{}); err != nil {
		return nil, fmt.Errorf("migrate auth store: %w", err)
	}
	return db, nil
}

type GormOAuthClientRepository struct{ db *gorm.DB }

func NewOAuthClientRepository(db *gorm.DB) OAuthClientRepository {
	return &GormOAuthClientRepository{db: db}
}

func (r *GormOAuthClientRepository) Create(ctx context.Context, c *domain.OAuthClient) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "oauth_client", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "oauth_client", "create", "success")
	return nil
}

func (r *GormOAuthClientRepository) FindByClientID(ctx context.Context, clientID string) (*domain.OAuthClient, error) {
	var c domain.OAuthClient
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "oauth_client", "find_by_client_id", "not_found")
			return nil, ErrClientNotFound
		}
		observability.RecordRepositoryOperation(ctx, "oauth_client", "find_by_client_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "oauth_client", "find_by_client_id", "success")
	return &c, nil
}
