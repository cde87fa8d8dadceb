// Package dbx holds the small database plumbing the vault repositories share:
// the DBTX handle satisfied by both *sql.DB and *sql.Tx, and WithTx for the
// flows that must be atomic, like master-password rotation and sync pulls.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the slice of database/sql the repositories need, so a repository
// built over the pooled handle can be rebuilt over a transaction unchanged.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction: commit on nil error, rollback on error
// or panic. Panics are rethrown after the rollback. Rotation uses this to
// guarantee the hash/salt swap and the envelope rewrites land together.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
