package attempts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cyphero-app/cyphero/internal/common"
	"github.com/cyphero-app/cyphero/internal/dbx"
	"github.com/cyphero-app/cyphero/internal/vault/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, username string) (*models.LoginAttempt, error) {
	a := &models.LoginAttempt{Username: username}
	err := r.db.QueryRowContext(ctx,
		`SELECT attempts, last_attempt FROM login_attempts WHERE username = ?`, username).
		Scan(&a.Attempts, &a.LastAttempt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get login attempts: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) Increment(ctx context.Context, username string, now int64) error {
	query := `INSERT INTO login_attempts (username, attempts, last_attempt) VALUES (?, 1, ?)
		ON CONFLICT(username) DO UPDATE SET attempts = attempts + 1, last_attempt = excluded.last_attempt`
	if _, err := r.db.ExecContext(ctx, query, username, now); err != nil {
		return fmt.Errorf("failed to increment login attempts: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Reset(ctx context.Context, username string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE username = ?`, username); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}
