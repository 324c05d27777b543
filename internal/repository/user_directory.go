package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jsbattig/code-indexer-sub037/internal/domain"
	"github.com/jsbattig/code-indexer-sub037/internal/observability"
	"github.com/jsbattig/code-indexer-sub037/internal/security"
)

var ErrUserNotFound = errors.New("user not found")

// GormUserDirectory is the bundled user-management collaborator. It stores
// bcrypt hashes and satisfies the directory interface the authorization
// layer consumes.
type GormUserDirectory struct{ db *gorm.DB }

func NewUserDirectory(db *gorm.DB) *GormUserDirectory {
	return &GormUserDirectory{db: db}
}

func (d *GormUserDirectory) GetUser(ctx context.Context, username string) (*domain.User, error) {
	var account domain.UserAccount
	err := d.db.WithContext(ctx).Where("username = ?", username).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "user_account", "get", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(ctx, "user_account", "get", "error")
		return nil, fmt.Errorf("get user: %w", err)
	}
	observability.RecordRepositoryOperation(ctx, "user_account", "get", "success")
	return account.View(), nil
}

func (d *GormUserDirectory) UpdatePassword(ctx context.Context, username, newPassword string) error {
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "user_account", "update_password", "error")
		return fmt.Errorf("hash password: %w", err)
	}
	res := d.db.WithContext(ctx).
		Model(&domain.UserAccount{}).
		Where("username = ?", username).
		Update("password_hash", hash)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "user_account", "update_password", "error")
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "user_account", "update_password", "not_found")
		return ErrUserNotFound
	}
	observability.RecordRepositoryOperation(ctx, "user_account", "update_password", "success")
	return nil
}

// CreateUser seeds an account with a freshly hashed password. Exposed for
// bootstrap and tests; the authorization layer never creates accounts.
func (d *GormUserDirectory) CreateUser(ctx context.Context, username, password string, role domain.Role) error {
	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account := domain.UserAccount{Username: username, PasswordHash: hash, Role: role.String()}
	if err := d.db.WithContext(ctx).Create(&account).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "user_account", "create", "error")
		return fmt.Errorf("create user: %w", err)
	}
	observability.RecordRepositoryOperation(ctx, "user_account", "create", "success")
	return nil
}
