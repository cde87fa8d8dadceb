// Package backup snapshots the local vault database, either to a directory
// on disk or to an S3-compatible bucket (MinIO in the default deployment).
// The database file only ever contains ciphertext, so a snapshot leaks
// nothing the live database would not.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cyphero-app/cyphero/internal/logging"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}

	now = time.Now
)

// SnapshotName returns the timestamped file name for a backup taken now.
func SnapshotName() string {
	return fmt.Sprintf("vault-%s.db", now().UTC().Format("20060102-150405"))
}

// CopyLocal copies the database file at dbPath into dir, creating dir if
// needed, and returns the path of the new snapshot.
func CopyLocal(dbPath, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	src, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open database file: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(dir, SnapshotName())
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to copy database: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync snapshot: %w", err)
	}
	return dstPath, nil
}

// S3Options configures the off-site uploader.
type S3Options struct {
	Bucket       string
	Region       string
	RootUser     string // MINIO_ROOT_USER
	RootPassword string // MINIO_ROOT_PASSWORD
	BaseEndpoint string
}

// S3Uploader ships database snapshots to an S3-compatible bucket.
type S3Uploader struct {
	opts S3Options
	log  logging.Logger
}

func NewS3Uploader(opts S3Options, log logging.Logger) *S3Uploader {
	return &S3Uploader{opts: opts, log: log}
}

func (u *S3Uploader) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(u.opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.opts.RootUser,
			u.opts.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(u.opts.BaseEndpoint)
	}), nil
}

// Upload stores the database file at dbPath under a date-partitioned key and
// returns the key.
func (u *S3Uploader) Upload(ctx context.Context, dbPath string) (string, error) {
	client, err := u.getClient(ctx)
	if err != nil {
		return "", err
	}

	f, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open database file: %w", err)
	}
	defer f.Close()

	d := now().UTC()
	key := fmt.Sprintf("backups/%d/%02d/%s", d.Year(), d.Month(), SnapshotName())

	bucket := u.opts.Bucket
	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   f,
	}); err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	u.log.Info(ctx, "backup uploaded", "bucket", bucket, "key", key)
	return key, nil
}
