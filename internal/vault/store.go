// Package vault wires the local credential store: it opens the sqlite
// database, applies embedded migrations, and bundles the repositories the
// services operate on.
package vault

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/cyphero-app/cyphero/internal/vault/migrations"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/attempts"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/config"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/credentials"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/users"
)

// Store bundles the database handle and the repositories bound to it.
// Repositories are bound to the bare *sql.DB; operations that need
// transactional scope rebuild them over a dbx.WithTx handle.
type Store struct {
	DB          *sql.DB
	Users       users.Repository
	Credentials credentials.Repository
	Attempts    attempts.Repository
	Config      config.Repository
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the local vault database at dsn, applies
// migrations, and returns the repository bundle. The caller owns Close.
// Foreign keys are enabled per connection so user deletion cascades to
// credentials.
func Open(ctx context.Context, dsn string) (*Store, error) {
	// _pragma applies per connection, which matters with pooled handles.
	if !strings.Contains(dsn, "_pragma") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{
		DB:          db,
		Users:       users.NewSQLiteRepository(db),
		Credentials: credentials.NewSQLiteRepository(db),
		Attempts:    attempts.NewSQLiteRepository(db),
		Config:      config.NewSQLiteRepository(db),
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}
