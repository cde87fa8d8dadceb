// Package users persists vault accounts in the local database.
package users

import (
	"context"

	"github.com/cyphero-app/cyphero/internal/vault/models"
)

// Repository describes persistence operations for User records.
type Repository interface {
	// Create inserts a new user. Returns common.ErrorAlreadyExists when the
	// username is taken. No partial insert happens on failure.
	Create(ctx context.Context, user *models.User) error

	// GetByUsername returns the user with the given username, or
	// common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByID returns the user with the given id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdateSecret replaces the stored password hash and key-derivation salt.
	UpdateSecret(ctx context.Context, id string, passwordHash string, salt []byte) error

	// Delete removes the user row. Credentials are removed by FK cascade.
	Delete(ctx context.Context, id string) error

	// Exists reports whether a username is present locally.
	Exists(ctx context.Context, username string) (bool, error)
}
