package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"textweight/internal/domain"
)

// PendingRepo implements the single-slot pending entry store.
type PendingRepo struct {
	db *DB
}

// NewPendingRepo wraps a DB as a PendingRepository.
func NewPendingRepo(db *DB) *PendingRepo {
	return &PendingRepo{db: db}
}

// Get returns the pending entry, or nil.
func (r *PendingRepo) Get(ctx context.Context) (*domain.PendingEntry, error) {
	row := r.db.sql.QueryRowContext(ctx,
		`SELECT id, weight, previous_weight, created_at FROM pending_entries ORDER BY created_at DESC LIMIT 1;`)

	var p domain.PendingEntry
	var prev sql.NullFloat64
	if err := row.Scan(&p.ID, &p.Weight, &prev, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if prev.Valid {
		p.PreviousWeight = &prev.Float64
	}
	return &p, nil
}

// Set atomically discards any existing pending entry and inserts the new
// one; the newest unconfirmed measurement always wins.
func (r *PendingRepo) Set(ctx context.Context, weight float64, previousWeight *float64, createdAt time.Time) (*domain.PendingEntry, error) {
	tx, err := r.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_entries;`); err != nil {
		return nil, err
	}

	var prev sql.NullFloat64
	if previousWeight != nil {
		prev = sql.NullFloat64{Float64: *previousWeight, Valid: true}
	}

	p := domain.PendingEntry{Weight: weight, PreviousWeight: previousWeight, CreatedAt: createdAt}
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO pending_entries(weight, previous_weight, created_at) VALUES($1, $2, $3) RETURNING id;`,
		weight, prev, createdAt.UTC(),
	).Scan(&p.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Clear empties the slot.
func (r *PendingRepo) Clear(ctx context.Context) error {
	_, err := r.db.sql.ExecContext(ctx, `DELETE FROM pending_entries;`)
	return err
}
