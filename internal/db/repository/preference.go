package repository

import (
	"context"
	"database/sql"

	"assetflow/internal/domain"
)

// PreferenceRepo stores preference values keyed by name.
type PreferenceRepo struct {
	db *sql.DB
}

// NewPreferenceRepo creates a PreferenceRepo.
func NewPreferenceRepo(db *sql.DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// Get returns the stored value of key, or a NotFoundError.
func (r *PreferenceRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", domain.ErrNotFound("preference %q not found", key)
		}
		return "", mapDBError(err)
	}
	return value, nil
}

// Put inserts or replaces the value of key.
func (r *PreferenceRepo) Put(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	return mapDBError(err)
}

// Delete removes key. Deleting a missing key is not an error.
func (r *PreferenceRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key)
	return mapDBError(err)
}

// List returns every stored preference.
func (r *PreferenceRepo) List(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM preferences ORDER BY key`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

var _ domain.PreferenceRepository = (*PreferenceRepo)(nil)
