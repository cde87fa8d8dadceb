package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cyphero-app/cyphero/internal/common"
	"github.com/cyphero-app/cyphero/internal/dbx"
	"github.com/cyphero-app/cyphero/internal/vault/models"
)

const allColumns = `id, user_id, website, login_username, encrypted_password,
	created_on, last_modified, category, favorite, syncable`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, c *models.Credential) error {
	query := `INSERT INTO passwords (id, user_id, website, login_username, encrypted_password, category)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.Website, c.LoginUsername, c.EncryptedPassword, c.Category); err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Credential, error) {
	query := `SELECT ` + allColumns + ` FROM passwords WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	c := &models.Credential{}
	if err := scanCredential(row.Scan, c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}
	return c, nil
}

func scanCredential(scan func(dest ...any) error, c *models.Credential) error {
	return scan(&c.ID, &c.UserID, &c.Website, &c.LoginUsername, &c.EncryptedPassword,
		&c.CreatedOn, &c.LastModified, &c.Category, &c.Favorite, &c.Syncable)
}

func (r *SQLiteRepository) GetAllByUser(ctx context.Context, userID string, f Filter) ([]models.Credential, error) {
	query := `SELECT ` + allColumns + ` FROM passwords WHERE user_id = ?`
	args := []any{userID}

	if f.Category != "" && f.Category != models.FilterAll && f.Category != models.FilterFavorites {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Category == models.FilterFavorites || f.FavoritesOnly {
		query += ` AND favorite = 1`
	}
	query += ` ORDER BY created_on, id`

	return r.queryMany(ctx, query, args...)
}

func (r *SQLiteRepository) queryMany(ctx context.Context, query string, args ...any) ([]models.Credential, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select credentials: %w", err)
	}
	defer rows.Close()

	var result []models.Credential
	for rows.Next() {
		var c models.Credential
		if err := scanCredential(rows.Scan, &c); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) FindIDByDisplay(ctx context.Context, userID, website, loginUsername string) (string, error) {
	query := `SELECT id FROM passwords WHERE user_id = ? AND website = ? AND login_username = ?`
	var id string
	err := r.db.QueryRowContext(ctx, query, userID, website, loginUsername).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrorNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to locate credential: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) UpdateContent(ctx context.Context, userID, id, website, loginUsername string, encrypted []byte) error {
	query := `UPDATE passwords
		SET website = ?, login_username = ?, encrypted_password = ?, last_modified = CURRENT_TIMESTAMP
		WHERE user_id = ? AND id = ?`
	res, err := r.db.ExecContext(ctx, query, website, loginUsername, encrypted, userID, id)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpdateEncrypted(ctx context.Context, id string, encrypted []byte) error {
	query := `UPDATE passwords SET encrypted_password = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, encrypted, id); err != nil {
		return fmt.Errorf("failed to re-encrypt credential: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM passwords WHERE user_id = ? AND id = ?`, userID, id); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetFavorite(ctx context.Context, id string, favorite bool) error {
	// favorite flips intentionally do not bump last_modified; they stay
	// invisible to modification-time sync.
	if _, err := r.db.ExecContext(ctx, `UPDATE passwords SET favorite = ? WHERE id = ?`, favorite, id); err != nil {
		return fmt.Errorf("failed to set favorite: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetSyncable(ctx context.Context, id string, syncable bool) error {
	query := `UPDATE passwords SET syncable = ?, last_modified = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, syncable, id); err != nil {
		return fmt.Errorf("failed to set syncable: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSyncable(ctx context.Context) ([]models.Credential, error) {
	query := `SELECT ` + allColumns + ` FROM passwords WHERE syncable = 1`
	return r.queryMany(ctx, query)
}

func (r *SQLiteRepository) GetSyncableModifiedSince(ctx context.Context, since string) ([]models.Credential, error) {
	query := `SELECT ` + allColumns + ` FROM passwords WHERE syncable = 1 AND last_modified > ?`
	return r.queryMany(ctx, query, since)
}

func (r *SQLiteRepository) GetSyncMeta(ctx context.Context, id string) (*SyncMeta, error) {
	var m SyncMeta
	err := r.db.QueryRowContext(ctx, `SELECT last_modified, syncable FROM passwords WHERE id = ?`, id).
		Scan(&m.LastModified, &m.Syncable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync meta: %w", err)
	}
	return &m, nil
}

func (r *SQLiteRepository) Replace(ctx context.Context, c *models.Credential) error {
	query := `UPDATE passwords
		SET website = ?, login_username = ?, encrypted_password = ?, created_on = ?,
			last_modified = ?, category = ?, favorite = ?, syncable = ?
		WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query,
		c.Website, c.LoginUsername, c.EncryptedPassword, c.CreatedOn,
		c.LastModified, c.Category, c.Favorite, c.Syncable, c.ID); err != nil {
		return fmt.Errorf("failed to replace credential: %w", err)
	}
	return nil
}

// InsertFull inserts a row with explicit timestamps, used when adopting a
// remote row during pull.
func (r *SQLiteRepository) InsertFull(ctx context.Context, c *models.Credential) error {
	query := `INSERT INTO passwords (` + allColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.Website, c.LoginUsername, c.EncryptedPassword,
		c.CreatedOn, c.LastModified, c.Category, c.Favorite, c.Syncable); err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]models.CategoryWebsite, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, website FROM passwords WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select categories: %w", err)
	}
	defer rows.Close()

	var result []models.CategoryWebsite
	for rows.Next() {
		var cw models.CategoryWebsite
		if err := rows.Scan(&cw.Category, &cw.Website); err != nil {
			return nil, err
		}
		result = append(result, cw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
