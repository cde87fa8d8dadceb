package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/cyphero-app/cyphero/internal/common"
	"github.com/cyphero-app/cyphero/internal/dbx"
	"github.com/cyphero-app/cyphero/internal/logging"
	"github.com/cyphero-app/cyphero/internal/remote"
	"github.com/cyphero-app/cyphero/internal/vault"
	"github.com/cyphero-app/cyphero/internal/vault/models"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/config"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/credentials"
)

// SyncService moves credential rows between the local store and the remote
// mirror. Conflict resolution is last-writer-wins on the lexically comparable
// last_modified timestamp, keyed by credential id. Envelopes never get
// decrypted here: rows cross the boundary opaque, re-encoded to standard
// base64 text on the way out and back to raw bytes on the way in.
type SyncService struct {
	store  *vault.Store
	remote remote.Store
	log    logging.Logger
}

// NewSyncService wires the sync engine over the local store and the remote
// mirror handle.
func NewSyncService(store *vault.Store, rs remote.Store, log logging.Logger) *SyncService {
	return &SyncService{store: store, remote: rs, log: log}
}

// PushModified uploads syncable rows modified since the stored last_synced
// bookmark, then advances the bookmark. Any remote failure aborts without
// advancing, so the affected rows are retried on the next push. Returns the
// number of rows uploaded.
func (s *SyncService) PushModified(ctx context.Context) (int, error) {
	since, err := s.store.Config.GetLastSynced(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := s.store.Credentials.GetSyncableModifiedSince(ctx, since)
	if err != nil {
		return 0, err
	}

	for _, row := range rows {
		if err := s.remote.UpsertCredential(ctx, toRemote(&row)); err != nil {
			s.log.Warn(ctx, "push aborted, bookmark not advanced",
				"credential_id", row.ID, "error", err)
			return 0, err
		}
	}

	if err := s.store.Config.Set(ctx, config.KeyLastSynced, models.NowTimestamp()); err != nil {
		return 0, err
	}

	s.log.Info(ctx, "incremental push finished", "uploaded", len(rows))
	return len(rows), nil
}

// PushAll uploads every syncable row regardless of modification time. It does
// not touch the last_synced bookmark: a full push is a repair action, not a
// checkpoint.
func (s *SyncService) PushAll(ctx context.Context) (int, error) {
	rows, err := s.store.Credentials.GetSyncable(ctx)
	if err != nil {
		return 0, err
	}

	for _, row := range rows {
		if err := s.remote.UpsertCredential(ctx, toRemote(&row)); err != nil {
			s.log.Warn(ctx, "full push aborted", "credential_id", row.ID, "error", err)
			return 0, err
		}
	}

	s.log.Info(ctx, "full push finished", "uploaded", len(rows))
	return len(rows), nil
}

// Pull downloads the user's remote rows and folds them into the local store
// in one transaction. An unknown id is inserted with its remote timestamps
// intact; a known id is overwritten only when the remote copy is strictly
// newer or its syncable flag differs. Returns (inserted, updated).
func (s *SyncService) Pull(ctx context.Context, userID string) (int, int, error) {
	remoteRows, err := s.remote.ListCredentials(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	var inserted, updated int
	err = dbx.WithTx(ctx, s.store.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := credentials.NewSQLiteRepository(tx)
		for _, rr := range remoteRows {
			local, err := fromRemote(&rr)
			if err != nil {
				return err
			}

			meta, err := repo.GetSyncMeta(ctx, local.ID)
			if errors.Is(err, common.ErrorNotFound) {
				if err := repo.InsertFull(ctx, local); err != nil {
					return err
				}
				inserted++
				continue
			}
			if err != nil {
				return err
			}

			if rr.LastModified > meta.LastModified || rr.Syncable != meta.Syncable {
				if err := repo.Replace(ctx, local); err != nil {
					return err
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	s.log.Info(ctx, "pull finished", "inserted", inserted, "updated", updated)
	return inserted, updated, nil
}

// toRemote converts a local row for upload, base64-encoding the envelope.
func toRemote(c *models.Credential) *remote.Credential {
	return &remote.Credential{
		ID:                c.ID,
		UserID:            c.UserID,
		Website:           c.Website,
		LoginUsername:     c.LoginUsername,
		EncryptedPassword: base64.StdEncoding.EncodeToString(c.EncryptedPassword),
		CreatedOn:         c.CreatedOn,
		LastModified:      c.LastModified,
		Category:          c.Category,
		Favorite:          c.Favorite,
		Syncable:          c.Syncable,
	}
}

// fromRemote converts a downloaded row back to the local representation.
func fromRemote(rr *remote.Credential) (*models.Credential, error) {
	envelope, err := base64.StdEncoding.DecodeString(rr.EncryptedPassword)
	if err != nil {
		return nil, fmt.Errorf("remote credential %s has a malformed envelope: %w", rr.ID, err)
	}
	return &models.Credential{
		ID:                rr.ID,
		UserID:            rr.UserID,
		Website:           rr.Website,
		LoginUsername:     rr.LoginUsername,
		EncryptedPassword: envelope,
		CreatedOn:         rr.CreatedOn,
		LastModified:      rr.LastModified,
		Category:          rr.Category,
		Favorite:          rr.Favorite,
		Syncable:          rr.Syncable,
	}, nil
}
