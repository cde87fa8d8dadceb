package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphero-app/cyphero/internal/common"
	"github.com/cyphero-app/cyphero/internal/logging"
	"github.com/cyphero-app/cyphero/internal/remote"
	"github.com/cyphero-app/cyphero/internal/vault"
	"github.com/cyphero-app/cyphero/internal/vault/models"
	"github.com/cyphero-app/cyphero/internal/vault/services"
)

// queuePasswords replaces the terminal reader with a queue of canned answers.
func queuePasswords(t *testing.T, passwords ...string) {
	t.Helper()
	orig := readPassword
	i := 0
	readPassword = func(fd int) ([]byte, error) {
		pw := passwords[i]
		i++
		return []byte(pw), nil
	}
	t.Cleanup(func() { readPassword = orig })
}

// newTestApp wires an App over a migrated in-memory database and the given
// remote store, with an already-authenticated session for "alice"/"master".
func newTestApp(t *testing.T, rs remote.Store) (*App, *bytes.Buffer) {
	t.Helper()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	store, err := vault.Open(context.Background(), "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	guard := services.NewAuthGuard(store.Attempts, services.DefaultPolicy(), log)
	accounts := services.NewAccountService(store, guard, rs, log)

	ctx := context.Background()
	_, err = accounts.Register(ctx, "alice", "master", "u1", nil)
	require.NoError(t, err)
	sess, err := accounts.Authenticate(ctx, "alice", "master")
	require.NoError(t, err)

	var out bytes.Buffer
	app := &App{
		log:      log,
		store:    store,
		accounts: accounts,
		creds:    services.NewCredentialService(store, rs, log),
		session:  sess,
		out:      &out,
	}
	if rs != nil {
		app.remoteStore = rs
		app.sync = services.NewSyncService(store, rs, log)
	}
	return app, &out
}

func TestRotate_RemoteFailureEndsSession(t *testing.T) {
	rs := remote.NewInMemoryStore()
	app, out := newTestApp(t, rs)
	ctx := context.Background()
	require.NoError(t, rs.InsertUser(ctx, &remote.User{ID: "u1", Username: "alice"}))

	rs.SetOffline(true)
	queuePasswords(t, "master", "rotated")

	err := app.Rotate(ctx)
	assert.ErrorIs(t, err, common.ErrorRemoteUpdateFailed)

	// the local vault took the new password, so the old session key is stale
	assert.Nil(t, app.session)
	assert.False(t, app.isLoggedIn())
	assert.Contains(t, out.String(), "rotate again")
}

func TestRotate_SuccessEndsSession(t *testing.T) {
	app, out := newTestApp(t, nil)
	queuePasswords(t, "master", "rotated")

	require.NoError(t, app.Rotate(context.Background()))
	assert.Nil(t, app.session)
	assert.Contains(t, out.String(), "log in again")
}

func TestStartSyncWorker_PushesOnTick(t *testing.T) {
	rs := remote.NewInMemoryStore()
	app, _ := newTestApp(t, rs)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := app.creds.Store(ctx, "u1", "example.com", "alice", "pw",
		models.CategoryWebsites, app.session.Key, ".com")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		app.StartSyncWorker(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(rs.Credentials()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestStartSyncWorker_NoSyncConfigured(t *testing.T) {
	app, _ := newTestApp(t, nil)

	// returns immediately instead of ticking
	app.StartSyncWorker(context.Background(), 10*time.Millisecond)
}
