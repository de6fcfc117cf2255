// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// Entry is one committed weight measurement per calendar date. Weight is
// always stored in pounds; display units are converted at the boundaries.
type Entry struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PendingEntry is an unconfirmed measurement awaiting auto-commit. At most
// one exists system-wide; creating a new one discards any prior one.
type PendingEntry struct {
	ID             int64     `json:"id"`
	Weight         float64   `json:"weight"`
	PreviousWeight *float64  `json:"previousWeight"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ImportEntry is a validated row from a bulk import.
type ImportEntry struct {
	Date   string
	Weight float64
}

// EntryRepository is the port for durable date-keyed entry persistence.
// Upsert writes insert-or-overwrite by date: an existing date keeps its
// created_at and gets a new weight and updated_at, which makes retried
// writes for the same date safe.
type EntryRepository interface {
	Upsert(ctx context.Context, date string, weight float64) (*Entry, error)
	GetLast(ctx context.Context) (*Entry, error)
	GetByDate(ctx context.Context, date string) (*Entry, error)
	GetByID(ctx context.Context, id int64) (*Entry, error)
	List(ctx context.Context) ([]Entry, error)
	Update(ctx context.Context, id int64, weight float64) (*Entry, error)
	Delete(ctx context.Context, id int64) error
	BulkImport(ctx context.Context, entries []ImportEntry) (int, error)
}

// PendingRepository is the port for the single-slot pending entry store.
// Set clears any existing pending entry before inserting the new one.
type PendingRepository interface {
	Get(ctx context.Context) (*PendingEntry, error)
	Set(ctx context.Context, weight float64, previousWeight *float64, createdAt time.Time) (*PendingEntry, error)
	Clear(ctx context.Context) error
}

// MessageSender is the port for the outbound message transport. Send reports
// success or failure only; no retries are owed by callers.
type MessageSender interface {
	Send(ctx context.Context, to, body string) bool
}
