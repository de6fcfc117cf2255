package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"textweight/internal/domain"
)

const entryColumns = "id, date, weight, created_at, updated_at"

func scanEntry(row *sql.Row) (*domain.Entry, error) {
	var e domain.Entry
	if err := row.Scan(&e.ID, &e.Date, &e.Weight, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// Upsert inserts or overwrites the entry for a date. The conflict branch
// keeps created_at and overwrites weight and updated_at, so retried writes
// for the same date are idempotent.
func (d *DB) Upsert(ctx context.Context, date string, weight float64) (*domain.Entry, error) {
	now := time.Now().UTC()
	row := d.sql.QueryRowContext(ctx,
		`INSERT INTO entries(date, weight, created_at, updated_at) VALUES($1, $2, $3, $3)
		 ON CONFLICT (date) DO UPDATE SET weight = EXCLUDED.weight, updated_at = EXCLUDED.updated_at
		 RETURNING `+entryColumns+`;`,
		date, weight, now,
	)
	return scanEntry(row)
}

// GetLast returns the entry with the most recent date, or nil.
func (d *DB) GetLast(ctx context.Context) (*domain.Entry, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries ORDER BY date DESC LIMIT 1;`)
	return scanEntry(row)
}

// GetByDate returns the entry for a date, or nil.
func (d *DB) GetByDate(ctx context.Context, date string) (*domain.Entry, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE date = $1;`, date)
	return scanEntry(row)
}

// GetByID returns the entry with the given id, or nil.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.Entry, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = $1;`, id)
	return scanEntry(row)
}

// List returns all entries, newest date first.
func (d *DB) List(ctx context.Context) ([]domain.Entry, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries ORDER BY date DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.Date, &e.Weight, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update overwrites the weight of the entry with the given id.
func (d *DB) Update(ctx context.Context, id int64, weight float64) (*domain.Entry, error) {
	row := d.sql.QueryRowContext(ctx,
		`UPDATE entries SET weight = $1, updated_at = $2 WHERE id = $3 RETURNING `+entryColumns+`;`,
		weight, time.Now().UTC(), id,
	)
	return scanEntry(row)
}

// Delete removes the entry with the given id.
func (d *DB) Delete(ctx context.Context, id int64) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM entries WHERE id = $1;`, id)
	return err
}

// BulkImport upserts every row in one transaction and returns the count
// written.
func (d *DB) BulkImport(ctx context.Context, entries []domain.ImportEntry) (int, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entries(date, weight, created_at, updated_at) VALUES($1, $2, $3, $3)
			 ON CONFLICT (date) DO UPDATE SET weight = EXCLUDED.weight, updated_at = EXCLUDED.updated_at;`,
			e.Date, e.Weight, now,
		); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(entries), nil
}
