package postgres

import (
	"context"
	"database/sql"
	"errors"
)

// SettingsRepo implements the key/value settings store.
type SettingsRepo struct {
	db *DB
}

// NewSettingsRepo wraps a DB as a SettingsRepository.
func NewSettingsRepo(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Get returns the value for key, or "" when the key has never been written.
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.sql.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = $1;`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores a value under key, overwriting any previous value.
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.sql.ExecContext(ctx,
		`INSERT INTO settings(key, value) VALUES($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value;`,
		key, value)
	return err
}

// All returns every setting.
func (r *SettingsRepo) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.sql.QueryContext(ctx, `SELECT key, value FROM settings;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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
