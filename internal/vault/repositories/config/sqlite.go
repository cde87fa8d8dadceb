package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/cyphero-app/cyphero/internal/common"
	"github.com/cyphero-app/cyphero/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrorNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get config[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) GetInt(ctx context.Context, key string) (int, error) {
	value, err := r.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config[%s] is not an integer: %w", key, err)
	}
	return n, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set config[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) GetLastSynced(ctx context.Context) (string, error) {
	value, err := r.Get(ctx, KeyLastSynced)
	if errors.Is(err, common.ErrorNotFound) {
		return DefaultLastSynced, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}
