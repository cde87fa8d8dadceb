// Package credentials persists encrypted login entries in the local database.
package credentials

import (
	"context"

	"github.com/cyphero-app/cyphero/internal/vault/models"
)

// Filter narrows listing queries. Category may be a named category,
// models.FilterAll, or models.FilterFavorites. FavoritesOnly forces the
// favorite predicate regardless of Category.
type Filter struct {
	Category      string
	FavoritesOnly bool
}

// SyncMeta is the per-row state the sync engine compares before overwriting.
type SyncMeta struct {
	LastModified string
	Syncable     bool
}

// Repository describes persistence operations for Credential records.
type Repository interface {
	// Insert stores a new credential row, letting the database assign the
	// created_on/last_modified timestamps.
	Insert(ctx context.Context, c *models.Credential) error

	// InsertFull stores a row with explicit timestamps, used when adopting a
	// remote row during pull.
	InsertFull(ctx context.Context, c *models.Credential) error

	// GetByID returns a credential, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Credential, error)

	// GetAllByUser lists a user's credentials matching the filter,
	// ordered by created_on then id.
	GetAllByUser(ctx context.Context, userID string, f Filter) ([]models.Credential, error)

	// FindIDByDisplay locates a credential by the fields the caller displays:
	// website and login username. Returns common.ErrorNotFound on a miss.
	FindIDByDisplay(ctx context.Context, userID, website, loginUsername string) (string, error)

	// UpdateContent replaces website, login username and envelope, bumping
	// last_modified. Returns common.ErrorNotFound if the row is absent.
	UpdateContent(ctx context.Context, userID, id, website, loginUsername string, encrypted []byte) error

	// UpdateEncrypted swaps only the envelope, leaving last_modified alone.
	// Used by master-password rotation, which changes the key, not the content.
	UpdateEncrypted(ctx context.Context, id string, encrypted []byte) error

	// Delete removes a credential scoped to its owner. Deleting an absent
	// row is a no-op.
	Delete(ctx context.Context, userID, id string) error

	// SetFavorite flips the favorite flag without touching last_modified.
	SetFavorite(ctx context.Context, id string, favorite bool) error

	// SetSyncable flips the syncable flag and bumps last_modified.
	SetSyncable(ctx context.Context, id string, syncable bool) error

	// GetSyncable returns all rows with syncable = 1.
	GetSyncable(ctx context.Context) ([]models.Credential, error)

	// GetSyncableModifiedSince returns syncable rows whose last_modified is
	// strictly greater than the given timestamp.
	GetSyncableModifiedSince(ctx context.Context, since string) ([]models.Credential, error)

	// GetSyncMeta returns the last_modified/syncable pair for one row, or
	// common.ErrorNotFound.
	GetSyncMeta(ctx context.Context, id string) (*SyncMeta, error)

	// Replace overwrites every field of an existing row by id, including the
	// timestamps. Used when the remote copy wins a sync conflict.
	Replace(ctx context.Context, c *models.Credential) error

	// ListCategories returns (category, website) pairs for the user.
	ListCategories(ctx context.Context, userID string) ([]models.CategoryWebsite, error)
}
