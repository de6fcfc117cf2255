// Package app holds the application services and business logic.
package app

import (
	"context"
	"sync"
	"time"

	"textweight/internal/domain"
)

// PendingSlot serializes access to the single-record pending entry store.
// An inbound CANCEL and a scheduler promotion can race on the same slot, so
// every operation here is one critical section: read, check and act happen
// under the same lock. The slot is created once by the composition root and
// shared by the message service and the scheduler.
type PendingSlot struct {
	mu   sync.Mutex
	repo domain.PendingRepository
}

// NewPendingSlot wraps a pending repository in the shared mutex.
func NewPendingSlot(repo domain.PendingRepository) *PendingSlot {
	return &PendingSlot{repo: repo}
}

// Current returns the pending entry, or nil.
func (s *PendingSlot) Current(ctx context.Context) (*domain.PendingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Get(ctx)
}

// Replace discards any existing pending entry and inserts the new one; the
// newest unconfirmed measurement silently supersedes an older one.
func (s *PendingSlot) Replace(ctx context.Context, weight float64, previousWeight *float64, now time.Time) (*domain.PendingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Set(ctx, weight, previousWeight, now)
}

// Cancel clears the slot and reports whether anything was pending.
// Cancelling an empty slot is a no-op, never an error.
func (s *PendingSlot) Cancel(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.Get(ctx)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, nil
	}
	if err := s.repo.Clear(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// PromoteExpired commits the pending entry if its age meets the timeout.
// The slot is cleared only after commit succeeds; on failure the entry is
// returned alongside the error and stays in place for the next attempt.
// Returns (nil, false, nil) when nothing is pending or nothing has expired.
func (s *PendingSlot) PromoteExpired(ctx context.Context, timeout time.Duration, now time.Time, commit func(*domain.PendingEntry) error) (*domain.PendingEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.Get(ctx)
	if err != nil {
		return nil, false, err
	}
	if p == nil || now.Sub(p.CreatedAt) < timeout {
		return nil, false, nil
	}
	if err := commit(p); err != nil {
		return p, false, err
	}
	if err := s.repo.Clear(ctx); err != nil {
		// The entry was committed; a failed clear just means one more
		// promotion attempt next tick, which the upsert makes safe.
		return p, false, err
	}
	return p, true, nil
}
