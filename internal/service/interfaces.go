package service

import (
	"context"

	"github.com/jsbattig/code-indexer-sub037/internal/domain"
)

// UserDirectory is the user-management collaborator. This core reads
// accounts; it never creates or stores them.
type UserDirectory interface {
	GetUser(ctx context.Context, username string) (*domain.User, error)
	UpdatePassword(ctx context.Context, username, newPassword string) error
}

// CredentialVerifier checks a candidate password against a stored hash.
type CredentialVerifier interface {
	Verify(hash, password string) error
}
