package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphero-app/cyphero/internal/vault/repositories/config"
)

func newTestGuard(t *testing.T, policy Policy) (*AuthGuard, *time.Time) {
	t.Helper()
	store := newTestStore(t)

	clock := time.Unix(1_000_000, 0)
	g := NewAuthGuard(store.Attempts, policy, testLogger())
	g.now = func() time.Time { return clock }
	return g, &clock
}

func TestAuthGuard_AllowsUnknownUsername(t *testing.T) {
	g, _ := newTestGuard(t, DefaultPolicy())

	allowed, err := g.CheckAllowed(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAuthGuard_LocksAfterMaxAttempts(t *testing.T) {
	g, _ := newTestGuard(t, DefaultPolicy())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, g.RecordFailure(ctx, "alice"))
	}
	allowed, err := g.CheckAllowed(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, allowed, "four failures must not lock")

	require.NoError(t, g.RecordFailure(ctx, "alice"))
	allowed, err = g.CheckAllowed(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, allowed, "fifth failure must lock")
}

func TestAuthGuard_LockExpires(t *testing.T) {
	g, clock := newTestGuard(t, DefaultPolicy())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, g.RecordFailure(ctx, "alice"))
	}

	*clock = clock.Add(59 * time.Second)
	allowed, err := g.CheckAllowed(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, allowed)

	*clock = clock.Add(2 * time.Second)
	allowed, err = g.CheckAllowed(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, allowed, "lock must expire after the window")
}

func TestAuthGuard_FailureDuringLockRefreshesWindow(t *testing.T) {
	g, clock := newTestGuard(t, DefaultPolicy())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, g.RecordFailure(ctx, "alice"))
	}

	*clock = clock.Add(50 * time.Second)
	require.NoError(t, g.RecordFailure(ctx, "alice"))

	// 61s after the original failures, but only 11s after the latest one.
	*clock = clock.Add(11 * time.Second)
	allowed, err := g.CheckAllowed(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAuthGuard_SuccessClearsState(t *testing.T) {
	g, _ := newTestGuard(t, DefaultPolicy())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, g.RecordFailure(ctx, "alice"))
	}
	require.NoError(t, g.RecordSuccess(ctx, "alice"))

	allowed, err := g.CheckAllowed(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLoadPolicy_FromSeededConfig(t *testing.T) {
	store := newTestStore(t)

	p, err := LoadPolicy(context.Background(), store.Config)
	require.NoError(t, err)
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 60*time.Second, p.LockoutWindow)
}

func TestLoadPolicy_DefaultsOnEmptyTable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE config (key TEXT PRIMARY KEY NOT NULL, value TEXT NOT NULL)`)
	require.NoError(t, err)

	p, err := LoadPolicy(context.Background(), config.NewSQLiteRepository(db))
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), p)
}
