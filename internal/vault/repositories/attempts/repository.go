// Package attempts tracks failed-login counters used by the lockout policy.
package attempts

import (
	"context"

	"github.com/cyphero-app/cyphero/internal/vault/models"
)

// Repository describes persistence operations for login-attempt counters.
type Repository interface {
	// Get returns the counter row for a username, or common.ErrorNotFound.
	Get(ctx context.Context, username string) (*models.LoginAttempt, error)

	// Increment upserts the counter: existing rows get attempts+1 and a
	// refreshed last_attempt; absent rows start at attempts = 1.
	Increment(ctx context.Context, username string, now int64) error

	// Reset deletes the counter row, fully clearing lockout state.
	Reset(ctx context.Context, username string) error
}
