package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/cyphero-app/cyphero/internal/common"
)

// PostgresStore implements Store against the hosted Postgres mirror
// (api.users / api.passwords).
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to the remote mirror and verifies reachability.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse remote dsn: %w", err)
	}

	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrorConnectivity, err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an already-open handle (used by tests).
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// classify maps driver errors to the boundary taxonomy: server-side SQL
// errors pass through, everything else (dial, TLS, timeouts) is connectivity.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("remote db error: %w", err)
	}
	return fmt.Errorf("%w: %v", common.ErrorConnectivity, err)
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*User, error) {
	query := `SELECT id, username, password_hash, salt FROM api.users WHERE id = $1`
	u := &User{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt)
	if err != nil {
		return nil, classify(err)
	}
	return u, nil
}

func (s *PostgresStore) InsertUser(ctx context.Context, u *User) error {
	query := `INSERT INTO api.users (id, username, password_hash, salt) VALUES ($1, $2, $3, $4)`
	_, err := s.db.ExecContext(ctx, query, u.ID, u.Username, u.PasswordHash, u.Salt)
	return classify(err)
}

func (s *PostgresStore) UpdateUserSecret(ctx context.Context, id, passwordHash, saltB64 string) error {
	query := `UPDATE api.users SET password_hash = $1, salt = $2 WHERE id = $3`
	res, err := s.db.ExecContext(ctx, query, passwordHash, saltB64, id)
	if err != nil {
		return classify(err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if ra != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (s *PostgresStore) ListCredentials(ctx context.Context, userID string) ([]Credential, error) {
	query := `SELECT id, user_id, website, login_username, encrypted_password,
			created_on, last_modified, category, favorite, syncable
		FROM api.passwords WHERE user_id = $1`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var result []Credential
	for rows.Next() {
		var c Credential
		if err := rows.Scan(&c.ID, &c.UserID, &c.Website, &c.LoginUsername, &c.EncryptedPassword,
			&c.CreatedOn, &c.LastModified, &c.Category, &c.Favorite, &c.Syncable); err != nil {
			return nil, classify(err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (s *PostgresStore) UpsertCredential(ctx context.Context, c *Credential) error {
	query := `INSERT INTO api.passwords
			(id, user_id, website, login_username, encrypted_password,
			 created_on, last_modified, category, favorite, syncable)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			website = excluded.website,
			login_username = excluded.login_username,
			encrypted_password = excluded.encrypted_password,
			created_on = excluded.created_on,
			last_modified = excluded.last_modified,
			category = excluded.category,
			favorite = excluded.favorite,
			syncable = excluded.syncable`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.Website, c.LoginUsername, c.EncryptedPassword,
		c.CreatedOn, c.LastModified, c.Category, c.Favorite, c.Syncable)
	return classify(err)
}

func (s *PostgresStore) DeleteCredential(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM api.passwords WHERE id = $1`, id)
	return classify(err)
}
