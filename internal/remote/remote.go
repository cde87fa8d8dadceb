// Package remote defines the boundary to the cloud copy of the vault:
// a table-per-entity mirror of users and passwords keyed by the same ids,
// plus the identity provider that issues account ids and sessions.
//
// String fields that are raw bytes locally (the salt, the encrypted
// envelope) cross this boundary as base64 text; the sync engine owns the
// re-encoding in both directions.
package remote

import "context"

// User mirrors a row of the remote users table. Salt is standard base64.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Salt         string
}

// Credential mirrors a row of the remote passwords table.
// EncryptedPassword is standard base64 of the envelope bytes.
type Credential struct {
	ID                string
	UserID            string
	Website           string
	LoginUsername     string
	EncryptedPassword string
	CreatedOn         string
	LastModified      string
	Category          string
	Favorite          bool
	Syncable          bool
}

// Store is the injected remote-store handle. Implementations must return
// common.ErrorConnectivity (wrapped) when the remote is unreachable and
// common.ErrorNotFound for missing single-row lookups.
type Store interface {
	GetUser(ctx context.Context, id string) (*User, error)
	InsertUser(ctx context.Context, u *User) error
	UpdateUserSecret(ctx context.Context, id, passwordHash, saltB64 string) error

	ListCredentials(ctx context.Context, userID string) ([]Credential, error)
	UpsertCredential(ctx context.Context, c *Credential) error
	DeleteCredential(ctx context.Context, id string) error
}
