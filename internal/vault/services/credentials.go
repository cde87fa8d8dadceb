package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cyphero-app/cyphero/internal/common"
	"github.com/cyphero-app/cyphero/internal/cryptox"
	"github.com/cyphero-app/cyphero/internal/logging"
	"github.com/cyphero-app/cyphero/internal/remote"
	"github.com/cyphero-app/cyphero/internal/vault"
	"github.com/cyphero-app/cyphero/internal/vault/models"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/credentials"
)

// CredentialService is the CRUD surface over stored logins. Every operation
// that touches plaintext takes the caller-held derived key; the service never
// keeps it.
type CredentialService struct {
	store  *vault.Store
	remote remote.Store
	log    logging.Logger
}

// NewCredentialService builds the service over the local store. The remote
// mirror handle may be nil for a purely local vault; deletion then skips the
// propagation step.
func NewCredentialService(store *vault.Store, rs remote.Store, log logging.Logger) *CredentialService {
	return &CredentialService{store: store, remote: rs, log: log}
}

// Store normalizes the website, encrypts the password under key, and inserts
// a new credential with a fresh UUID. Returns the new id.
func (s *CredentialService) Store(ctx context.Context, userID, website, loginUsername, plainPassword, category string, key []byte, defaultTLD string) (string, error) {
	envelope, err := cryptox.Encrypt(plainPassword, key)
	if err != nil {
		return "", fmt.Errorf("encryption error: %w", err)
	}

	c := &models.Credential{
		ID:                uuid.NewString(),
		UserID:            userID,
		Website:           NormalizeWebsite(website, defaultTLD),
		LoginUsername:     loginUsername,
		EncryptedPassword: []byte(envelope),
		Category:          category,
	}
	if err := s.store.Credentials.Insert(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

// List returns the user's credentials matching the filter, decrypting each
// row independently. A row whose envelope cannot be opened is still returned
// with DecryptFailed set, so one bad row never aborts the listing.
func (s *CredentialService) List(ctx context.Context, userID string, key []byte, f credentials.Filter) ([]models.CredentialView, error) {
	rows, err := s.store.Credentials.GetAllByUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	result := make([]models.CredentialView, 0, len(rows))
	for _, row := range rows {
		view := models.CredentialView{
			ID:            row.ID,
			Website:       row.Website,
			LoginUsername: row.LoginUsername,
			CreatedOn:     row.CreatedOn,
			LastModified:  row.LastModified,
			Category:      row.Category,
			Favorite:      row.Favorite,
			Syncable:      row.Syncable,
		}

		plaintext, err := cryptox.Decrypt(string(row.EncryptedPassword), key)
		if err != nil {
			s.log.Warn(ctx, "credential failed to decrypt",
				"credential_id", row.ID, "website", row.Website)
			view.DecryptFailed = true
		} else {
			view.Password = plaintext
		}
		result = append(result, view)
	}
	return result, nil
}

// Categories returns (category, website) pairs for the user. Even though
// neither field is encrypted, the listing requires an authenticated session:
// a nil key yields common.ErrorAuthRequired.
func (s *CredentialService) Categories(ctx context.Context, userID string, key []byte) ([]models.CategoryWebsite, error) {
	if key == nil {
		return nil, common.ErrorAuthRequired
	}
	return s.store.Credentials.ListCategories(ctx, userID)
}

// Edit locates a credential by the display fields the caller carries
// (old website + old login username), re-encrypts the new password, and
// updates website/username/envelope, bumping last_modified. Returns
// common.ErrorNotFound without mutation when no row matches.
func (s *CredentialService) Edit(ctx context.Context, userID, oldWebsite, oldUsername, newWebsite, newUsername, newPassword string, key []byte) error {
	id, err := s.store.Credentials.FindIDByDisplay(ctx, userID, oldWebsite, oldUsername)
	if err != nil {
		return err
	}

	envelope, err := cryptox.Encrypt(newPassword, key)
	if err != nil {
		return fmt.Errorf("encryption error: %w", err)
	}
	return s.store.Credentials.UpdateContent(ctx, userID, id, newWebsite, newUsername, []byte(envelope))
}

// Delete removes a credential scoped to its owner; deleting an absent row is
// a no-op. The remote copy is deleted best-effort: an unreachable mirror does
// not undo the local delete, it only leaves the remote row to be overwritten
// or cleaned up on a later sync.
func (s *CredentialService) Delete(ctx context.Context, userID, credentialID string) error {
	if err := s.store.Credentials.Delete(ctx, userID, credentialID); err != nil {
		return err
	}
	if s.remote != nil {
		if err := s.remote.DeleteCredential(ctx, credentialID); err != nil {
			s.log.Warn(ctx, "remote copy not deleted", "credential_id", credentialID, "error", err)
		}
	}
	return nil
}

// ToggleFavorite flips the favorite flag. It requires an authenticated
// session but intentionally does not bump last_modified: favorite-only
// changes stay invisible to modification-time sync.
func (s *CredentialService) ToggleFavorite(ctx context.Context, credentialID string, value bool, key []byte) error {
	if key == nil {
		return common.ErrorAuthRequired
	}
	return s.store.Credentials.SetFavorite(ctx, credentialID, value)
}

// ToggleSyncable flips the syncable flag and bumps last_modified so the
// change itself propagates on the next push.
func (s *CredentialService) ToggleSyncable(ctx context.Context, credentialID string, value bool, key []byte) error {
	if key == nil {
		return common.ErrorAuthRequired
	}
	return s.store.Credentials.SetSyncable(ctx, credentialID, value)
}
