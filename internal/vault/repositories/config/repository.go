// Package config persists flat key/value settings: lockout policy constants
// and sync bookkeeping.
package config

import "context"

// Keys stored in the config table.
const (
	KeyMaxAttempts = "max_attempts"
	KeyLockoutTime = "lockout_time"
	KeyLastSynced  = "last_synced"
)

// DefaultLastSynced is returned when no sync has ever run; it predates any
// credential row, so the first push covers everything.
const DefaultLastSynced = "2000-01-01 00:00:00"

// Repository describes persistence operations for config values.
type Repository interface {
	// Get returns the value for key, or common.ErrorNotFound.
	Get(ctx context.Context, key string) (string, error)

	// GetInt returns the value for key parsed as an integer.
	GetInt(ctx context.Context, key string) (int, error)

	// Set upserts a key/value pair.
	Set(ctx context.Context, key, value string) error

	// GetLastSynced returns the last successful sync timestamp, falling back
	// to DefaultLastSynced when the key is absent.
	GetLastSynced(ctx context.Context) (string, error)
}
