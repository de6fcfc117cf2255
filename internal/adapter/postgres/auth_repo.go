package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"textweight/internal/domain"
)

// AuthCodeRepo implements login-code persistence.
type AuthCodeRepo struct {
	db *DB
}

// NewAuthCodeRepo wraps a DB as an AuthCodeRepository.
func NewAuthCodeRepo(db *DB) *AuthCodeRepo {
	return &AuthCodeRepo{db: db}
}

// Create stores a new hashed code.
func (r *AuthCodeRepo) Create(ctx context.Context, phone, codeHash string, createdAt time.Time) error {
	_, err := r.db.sql.ExecContext(ctx,
		`INSERT INTO auth_codes(phone, code_hash, created_at) VALUES($1, $2, $3);`,
		phone, codeHash, createdAt.UTC())
	return err
}

// RecentCodes returns unused codes for phone created after cutoff, newest
// first.
func (r *AuthCodeRepo) RecentCodes(ctx context.Context, phone string, cutoff time.Time) ([]domain.AuthCode, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		`SELECT id, phone, code_hash, created_at, used FROM auth_codes
		 WHERE phone = $1 AND used = FALSE AND created_at > $2
		 ORDER BY created_at DESC;`,
		phone, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuthCode
	for rows.Next() {
		var c domain.AuthCode
		if err := rows.Scan(&c.ID, &c.Phone, &c.CodeHash, &c.CreatedAt, &c.Used); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MarkUsed flags a code as consumed.
func (r *AuthCodeRepo) MarkUsed(ctx context.Context, id int64) error {
	_, err := r.db.sql.ExecContext(ctx, `UPDATE auth_codes SET used = TRUE WHERE id = $1;`, id)
	return err
}

// DeleteOlderThan prunes codes created before cutoff.
func (r *AuthCodeRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.sql.ExecContext(ctx, `DELETE FROM auth_codes WHERE created_at < $1;`, cutoff.UTC())
	return err
}

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create stores a new session.
func (r *SessionRepo) Create(ctx context.Context, id string, createdAt, expiresAt time.Time) error {
	_, err := r.db.sql.ExecContext(ctx,
		`INSERT INTO sessions(id, created_at, expires_at) VALUES($1, $2, $3);`,
		id, createdAt.UTC(), expiresAt.UTC())
	return err
}

// Get returns the session with the given id, or nil.
func (r *SessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.sql.QueryRowContext(ctx,
		`SELECT id, created_at, expires_at FROM sessions WHERE id = $1;`, id,
	).Scan(&s.ID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes a session.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.sql.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1;`, id)
	return err
}

// DeleteExpired removes every session past its expiry.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	_, err := r.db.sql.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1;`, now.UTC())
	return err
}
