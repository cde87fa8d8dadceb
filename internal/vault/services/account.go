package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/cyphero-app/cyphero/internal/common"
	"github.com/cyphero-app/cyphero/internal/cryptox"
	"github.com/cyphero-app/cyphero/internal/dbx"
	"github.com/cyphero-app/cyphero/internal/logging"
	"github.com/cyphero-app/cyphero/internal/remote"
	"github.com/cyphero-app/cyphero/internal/vault"
	"github.com/cyphero-app/cyphero/internal/vault/models"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/config"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/credentials"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/users"
)

// Session is the result of a successful authentication. Key is the derived
// encryption key: it lives only for the session and must never be written to
// stable storage. Callers should zero it when the session ends.
type Session struct {
	UserID   string
	Username string
	Key      []byte
}

// Wipe zeroes the derived key in place.
func (s *Session) Wipe() {
	for i := range s.Key {
		s.Key[i] = 0
	}
	s.Key = nil
}

// AccountService handles account lifecycle: registration, authentication
// (gated by the AuthGuard), master-password rotation, and deletion.
// The remote store handle may be nil for a purely local vault; rotation then
// skips the propagation step.
type AccountService struct {
	store  *vault.Store
	guard  *AuthGuard
	remote remote.Store
	log    logging.Logger
}

// NewAccountService wires the account flows over the local store, the lockout
// guard, and an optional remote mirror.
func NewAccountService(store *vault.Store, guard *AuthGuard, rs remote.Store, log logging.Logger) *AccountService {
	return &AccountService{store: store, guard: guard, remote: rs, log: log}
}

// Register creates a local account. externalID is the identity-provider id
// that becomes the user's stable id. When salt is nil a fresh one is
// generated; a caller-supplied salt (e.g. recovered from the remote mirror)
// must be exactly 16 bytes. Returns common.ErrorAlreadyExists for a taken
// username; nothing is inserted on failure.
func (s *AccountService) Register(ctx context.Context, username, masterPassword, externalID string, salt []byte) (*models.User, error) {
	if salt == nil {
		salt = cryptox.GenerateSalt()
	} else if len(salt) != cryptox.SaltSize {
		return nil, cryptox.ErrInvalidSaltSize
	}

	hash, err := cryptox.HashMasterPassword(masterPassword)
	if err != nil {
		return nil, err
	}

	user := &models.User{ID: externalID, Username: username, PasswordHash: hash, Salt: salt}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user created", "username", username)
	return user, nil
}

// Authenticate verifies the master password and returns a session holding the
// derived key. Failures are recorded with the guard; an active lockout
// returns common.ErrorLockedOut before the password is even checked. A
// corrupt stored hash is surfaced as cryptox.ErrCorruptHash without counting
// as a failed attempt.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	allowed, err := s.guard.CheckAllowed(ctx, username)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, common.ErrorLockedOut
	}

	user, err := s.store.Users.GetByUsername(ctx, username)
	if errors.Is(err, common.ErrorNotFound) {
		if gErr := s.guard.RecordFailure(ctx, username); gErr != nil {
			return nil, gErr
		}
		return nil, common.ErrorWrongPassword
	}
	if err != nil {
		return nil, err
	}

	ok, err := cryptox.CheckMasterPassword(password, user.PasswordHash)
	if err != nil {
		s.log.Error(ctx, "stored password hash is unreadable", "username", username, "error", err)
		return nil, err
	}
	if !ok {
		if gErr := s.guard.RecordFailure(ctx, username); gErr != nil {
			return nil, gErr
		}
		return nil, common.ErrorWrongPassword
	}

	if err := s.guard.RecordSuccess(ctx, username); err != nil {
		return nil, err
	}

	key, err := cryptox.DeriveKey(password, user.Salt)
	if err != nil {
		return nil, err
	}
	return &Session{UserID: user.ID, Username: user.Username, Key: key}, nil
}

// RotateMasterPassword re-encrypts every credential of the user under a key
// derived from newPassword and a fresh salt, and swaps the stored hash+salt,
// all in one transaction: either everything changes or nothing does. If any
// credential fails to decrypt under the old key the operation aborts before
// any mutation.
//
// Propagation to the remote mirror is a separate step after the local
// commit: the new hash/salt first, then every syncable envelope, then the
// last_synced bookmark. The envelopes must ride along: they were swapped
// without bumping last_modified, so an incremental push would never pick
// them up, and a mirror holding the new salt with old-key envelopes is
// unreadable to every other device. When any remote call fails,
// common.ErrorRemoteUpdateFailed is returned: the local vault already
// requires the new password and the caller must rotate again once the
// remote is reachable to converge.
func (s *AccountService) RotateMasterPassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := cryptox.CheckMasterPassword(oldPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorWrongPassword
	}

	oldKey, err := cryptox.DeriveKey(oldPassword, user.Salt)
	if err != nil {
		return err
	}

	rows, err := s.store.Credentials.GetAllByUser(ctx, userID, credentials.Filter{Category: models.FilterAll})
	if err != nil {
		return err
	}

	// Decrypt everything up front; a single failure aborts with no mutation.
	plaintexts := make(map[string]string, len(rows))
	for _, row := range rows {
		plaintext, err := cryptox.Decrypt(string(row.EncryptedPassword), oldKey)
		if err != nil {
			s.log.Error(ctx, "credential failed to decrypt during rotation",
				"credential_id", row.ID, "website", row.Website)
			return fmt.Errorf("credential %s: %w", row.ID, err)
		}
		plaintexts[row.ID] = plaintext
	}

	newSalt := cryptox.GenerateSalt()
	newKey, err := cryptox.DeriveKey(newPassword, newSalt)
	if err != nil {
		return err
	}
	newHash, err := cryptox.HashMasterPassword(newPassword)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.store.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		credRepo := credentials.NewSQLiteRepository(tx)
		for id, plaintext := range plaintexts {
			envelope, err := cryptox.Encrypt(plaintext, newKey)
			if err != nil {
				return err
			}
			if err := credRepo.UpdateEncrypted(ctx, id, []byte(envelope)); err != nil {
				return err
			}
		}
		return users.NewSQLiteRepository(tx).UpdateSecret(ctx, userID, newHash, newSalt)
	})
	if err != nil {
		return fmt.Errorf("rotation rolled back: %w", err)
	}

	s.log.Info(ctx, "master password rotated", "user", userID, "credentials", len(plaintexts))

	if s.remote == nil {
		return nil
	}
	saltB64 := base64.StdEncoding.EncodeToString(newSalt)
	if err := s.remote.UpdateUserSecret(ctx, userID, newHash, saltB64); err != nil {
		s.log.Error(ctx, "remote hash/salt update failed after local commit",
			"user", userID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrorRemoteUpdateFailed, err)
	}

	// re-upload the re-encrypted envelopes; the remote mirror must never hold
	// the new salt alongside old-key ciphertext
	syncable, err := s.store.Credentials.GetSyncable(ctx)
	if err != nil {
		return err
	}
	for _, row := range syncable {
		if err := s.remote.UpsertCredential(ctx, toRemote(&row)); err != nil {
			s.log.Error(ctx, "remote envelope upload failed after rotation",
				"credential_id", row.ID, "error", err)
			return fmt.Errorf("%w: %v", common.ErrorRemoteUpdateFailed, err)
		}
	}
	if err := s.store.Config.Set(ctx, config.KeyLastSynced, models.NowTimestamp()); err != nil {
		return err
	}
	return nil
}

// DeleteAccount verifies the master password and removes the user row; the
// schema's ON DELETE CASCADE removes all credentials with it.
func (s *AccountService) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := cryptox.CheckMasterPassword(password, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorWrongPassword
	}

	if err := s.store.Users.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info(ctx, "user deleted", "username", user.Username)
	return nil
}
