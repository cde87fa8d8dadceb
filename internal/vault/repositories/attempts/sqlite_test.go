package attempts

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphero-app/cyphero/internal/common"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE login_attempts (
  username TEXT PRIMARY KEY NOT NULL,
  attempts INTEGER NOT NULL,
  last_attempt INTEGER NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

func TestGet_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.Get(context.Background(), "alice")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestIncrement_InsertsThenCounts(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Increment(ctx, "alice", 100))

	a, err := r.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Attempts)
	assert.Equal(t, int64(100), a.LastAttempt)

	require.NoError(t, r.Increment(ctx, "alice", 130))
	require.NoError(t, r.Increment(ctx, "alice", 160))

	a, err = r.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, a.Attempts)
	assert.Equal(t, int64(160), a.LastAttempt)
}

func TestReset(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Increment(ctx, "alice", 100))
	require.NoError(t, r.Reset(ctx, "alice"))

	_, err := r.Get(ctx, "alice")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// resetting an unknown username is a no-op
	require.NoError(t, r.Reset(ctx, "bob"))
}
