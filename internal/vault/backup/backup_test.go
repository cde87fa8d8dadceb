package backup

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphero-app/cyphero/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCopyLocal(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "vault.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("ciphertext-bytes"), 0o600))

	backupDir := filepath.Join(dir, "backups")
	snap, err := CopyLocal(dbPath, backupDir)
	require.NoError(t, err)

	data, err := os.ReadFile(snap)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext-bytes"), data)
	assert.Equal(t, backupDir, filepath.Dir(snap))
}

func TestCopyLocal_MissingSource(t *testing.T) {
	_, err := CopyLocal(filepath.Join(t.TempDir(), "absent.db"), t.TempDir())
	assert.Error(t, err)
}

func TestSnapshotName(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2026, 8, 31, 12, 30, 45, 0, time.UTC) }
	t.Cleanup(func() { now = orig })

	assert.Equal(t, "vault-20260831-123045.db", SnapshotName())
}

func TestS3Uploader_Upload(t *testing.T) {
	origNow, origPut := now, putObject
	now = func() time.Time { return time.Date(2026, 8, 31, 12, 30, 45, 0, time.UTC) }
	t.Cleanup(func() { now, putObject = origNow, origPut })

	var gotBucket, gotKey string
	var gotBody []byte
	putObject = func(_ *s3.Client, _ context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		gotBucket = *in.Bucket
		gotKey = *in.Key
		b, err := io.ReadAll(in.Body)
		require.NoError(t, err)
		gotBody = b
		return &s3.PutObjectOutput{}, nil
	}

	dbPath := filepath.Join(t.TempDir(), "vault.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("snapshot"), 0o600))

	u := NewS3Uploader(S3Options{Bucket: "vault-backups", Region: "us-east-1"}, testLogger())
	key, err := u.Upload(context.Background(), dbPath)
	require.NoError(t, err)

	assert.Equal(t, "vault-backups", gotBucket)
	assert.Equal(t, "backups/2026/08/vault-20260831-123045.db", gotKey)
	assert.Equal(t, key, gotKey)
	assert.Equal(t, []byte("snapshot"), gotBody)
}
