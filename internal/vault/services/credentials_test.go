package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphero-app/cyphero/internal/common"
	"github.com/cyphero-app/cyphero/internal/cryptox"
	"github.com/cyphero-app/cyphero/internal/remote"
	"github.com/cyphero-app/cyphero/internal/vault"
	"github.com/cyphero-app/cyphero/internal/vault/models"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/credentials"
)

func newCredentialFixture(t *testing.T) (*CredentialService, *vault.Store, []byte) {
	t.Helper()
	store := newTestStore(t)
	guard := NewAuthGuard(store.Attempts, DefaultPolicy(), testLogger())
	accounts := NewAccountService(store, guard, nil, testLogger())

	ctx := context.Background()
	_, err := accounts.Register(ctx, "alice", "master", "u1", nil)
	require.NoError(t, err)
	sess, err := accounts.Authenticate(ctx, "alice", "master")
	require.NoError(t, err)

	return NewCredentialService(store, nil, testLogger()), store, sess.Key
}

func TestStore_NormalizesWebsite(t *testing.T) {
	svc, _, key := newCredentialFixture(t)
	ctx := context.Background()

	_, err := svc.Store(ctx, "u1", "https://www.Example.com/login", "alice", "pw", models.CategoryWebsites, key, ".com")
	require.NoError(t, err)

	views, err := svc.List(ctx, "u1", key, credentials.Filter{Category: models.FilterAll})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "example.com", views[0].Website)
	assert.Equal(t, "pw", views[0].Password)
}

func TestStore_EnvelopeIsNotPlaintext(t *testing.T) {
	svc, store, key := newCredentialFixture(t)
	ctx := context.Background()

	id, err := svc.Store(ctx, "u1", "example.com", "alice", "hunter2", models.CategoryWebsites, key, ".com")
	require.NoError(t, err)

	var envelope []byte
	require.NoError(t, store.DB.QueryRow(`SELECT encrypted_password FROM passwords WHERE id = ?`, id).Scan(&envelope))
	assert.NotContains(t, string(envelope), "hunter2")

	plaintext, err := cryptox.Decrypt(string(envelope), key)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plaintext)
}

func TestList_CorruptedRowIsFlaggedNotFatal(t *testing.T) {
	svc, store, key := newCredentialFixture(t)
	ctx := context.Background()

	var ids []string
	for _, site := range []string{"a.com", "b.com", "c.com", "d.com", "e.com"} {
		id, err := svc.Store(ctx, "u1", site, "alice", "pw-"+site, models.CategoryWebsites, key, ".com")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	_, err := store.DB.Exec(`UPDATE passwords SET encrypted_password = ? WHERE id = ?`, []byte("garbage"), ids[2])
	require.NoError(t, err)

	views, err := svc.List(ctx, "u1", key, credentials.Filter{Category: models.FilterAll})
	require.NoError(t, err)
	require.Len(t, views, 5)

	var failed int
	for _, v := range views {
		if v.DecryptFailed {
			failed++
			assert.Empty(t, v.Password)
		} else {
			assert.Equal(t, "pw-"+v.Website, v.Password)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestList_FavoritesFilter(t *testing.T) {
	svc, _, key := newCredentialFixture(t)
	ctx := context.Background()

	id1, err := svc.Store(ctx, "u1", "a.com", "alice", "pw1", models.CategoryWebsites, key, ".com")
	require.NoError(t, err)
	_, err = svc.Store(ctx, "u1", "b.com", "alice", "pw2", models.CategoryWebsites, key, ".com")
	require.NoError(t, err)

	require.NoError(t, svc.ToggleFavorite(ctx, id1, true, key))

	views, err := svc.List(ctx, "u1", key, credentials.Filter{Category: models.FilterFavorites})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "a.com", views[0].Website)
	assert.True(t, views[0].Favorite)
}

func TestCategories_RequiresSession(t *testing.T) {
	svc, _, key := newCredentialFixture(t)
	ctx := context.Background()

	_, err := svc.Categories(ctx, "u1", nil)
	assert.ErrorIs(t, err, common.ErrorAuthRequired)

	_, err = svc.Store(ctx, "u1", "bank.com", "alice", "pw", models.CategoryBanks, key, ".com")
	require.NoError(t, err)

	pairs, err := svc.Categories(ctx, "u1", key)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, models.CategoryBanks, pairs[0].Category)
}

func TestEdit(t *testing.T) {
	svc, _, key := newCredentialFixture(t)
	ctx := context.Background()

	_, err := svc.Store(ctx, "u1", "example.com", "alice", "old pw", models.CategoryWebsites, key, ".com")
	require.NoError(t, err)

	require.NoError(t, svc.Edit(ctx, "u1", "example.com", "alice", "example.org", "alice2", "new pw", key))

	views, err := svc.List(ctx, "u1", key, credentials.Filter{Category: models.FilterAll})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "example.org", views[0].Website)
	assert.Equal(t, "alice2", views[0].LoginUsername)
	assert.Equal(t, "new pw", views[0].Password)
}

func TestEdit_NotFound(t *testing.T) {
	svc, _, key := newCredentialFixture(t)

	err := svc.Edit(context.Background(), "u1", "missing.com", "alice", "w", "l", "pw", key)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteCredential(t *testing.T) {
	svc, _, key := newCredentialFixture(t)
	ctx := context.Background()

	id, err := svc.Store(ctx, "u1", "example.com", "alice", "pw", models.CategoryWebsites, key, ".com")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1", id))

	views, err := svc.List(ctx, "u1", key, credentials.Filter{Category: models.FilterAll})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestDeleteCredential_PropagatesToRemote(t *testing.T) {
	store := newTestStore(t)
	guard := NewAuthGuard(store.Attempts, DefaultPolicy(), testLogger())
	accounts := NewAccountService(store, guard, nil, testLogger())
	rs := remote.NewInMemoryStore()
	svc := NewCredentialService(store, rs, testLogger())
	syncSvc := NewSyncService(store, rs, testLogger())
	ctx := context.Background()

	_, err := accounts.Register(ctx, "alice", "master", "u1", nil)
	require.NoError(t, err)
	sess, err := accounts.Authenticate(ctx, "alice", "master")
	require.NoError(t, err)

	id, err := svc.Store(ctx, "u1", "example.com", "alice", "pw", models.CategoryWebsites, sess.Key, ".com")
	require.NoError(t, err)
	_, err = syncSvc.PushModified(ctx)
	require.NoError(t, err)
	require.Len(t, rs.Credentials(), 1)

	require.NoError(t, svc.Delete(ctx, "u1", id))
	assert.Empty(t, rs.Credentials(), "remote copy must go with the local row")

	// an unreachable mirror does not undo the local delete
	id2, err := svc.Store(ctx, "u1", "other.com", "alice", "pw2", models.CategoryWebsites, sess.Key, ".com")
	require.NoError(t, err)
	rs.SetOffline(true)
	require.NoError(t, svc.Delete(ctx, "u1", id2))
	views, err := svc.List(ctx, "u1", sess.Key, credentials.Filter{Category: models.FilterAll})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestToggles_RequireSession(t *testing.T) {
	svc, _, _ := newCredentialFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.ToggleFavorite(ctx, "c1", true, nil), common.ErrorAuthRequired)
	assert.ErrorIs(t, svc.ToggleSyncable(ctx, "c1", false, nil), common.ErrorAuthRequired)
}
