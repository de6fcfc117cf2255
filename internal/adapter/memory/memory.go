// Package memory implements the repositories in process memory for
// development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"textweight/internal/domain"
)

// Store implements the entry repository directly and hands out wrappers for
// the remaining ports. Every wrapper shares the one mutex.
type Store struct {
	mu       sync.Mutex
	entries  []domain.Entry
	pending  *domain.PendingEntry
	settings map[string]string
	codes    []domain.AuthCode
	sessions map[string]*domain.Session

	entryIDCounter   int64
	pendingIDCounter int64
	codeIDCounter    int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		settings: make(map[string]string),
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.EntryRepository = (*Store)(nil)
var _ domain.PendingRepository = (*PendingRepo)(nil)
var _ domain.SettingsRepository = (*SettingsRepo)(nil)
var _ domain.AuthCodeRepository = (*AuthCodeRepo)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- EntryRepository ---

// Upsert inserts or overwrites the entry for a date. An existing date keeps
// its created_at.
func (s *Store) Upsert(ctx context.Context, date string, weight float64) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for i := range s.entries {
		if s.entries[i].Date == date {
			s.entries[i].Weight = weight
			s.entries[i].UpdatedAt = now
			e := s.entries[i]
			return &e, nil
		}
	}

	s.entryIDCounter++
	e := domain.Entry{
		ID:        s.entryIDCounter,
		Date:      date,
		Weight:    weight,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.entries = append(s.entries, e)
	return &e, nil
}

// GetLast returns the entry with the most recent date.
func (s *Store) GetLast(ctx context.Context) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last *domain.Entry
	for i := range s.entries {
		if last == nil || s.entries[i].Date > last.Date {
			last = &s.entries[i]
		}
	}
	if last == nil {
		return nil, nil
	}
	e := *last
	return &e, nil
}

// GetByDate returns the entry for a date, or nil.
func (s *Store) GetByDate(ctx context.Context, date string) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].Date == date {
			e := s.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

// GetByID returns the entry with the given id, or nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			e := s.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

// List returns all entries, newest date first.
func (s *Store) List(ctx context.Context) ([]domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Entry, len(s.entries))
	copy(out, s.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// Update overwrites the weight of the entry with the given id.
func (s *Store) Update(ctx context.Context, id int64, weight float64) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Weight = weight
			s.entries[i].UpdatedAt = time.Now().UTC()
			e := s.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

// Delete removes the entry with the given id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

// BulkImport upserts every row and returns the count written.
func (s *Store) BulkImport(ctx context.Context, entries []domain.ImportEntry) (int, error) {
	for _, e := range entries {
		if _, err := s.Upsert(ctx, e.Date, e.Weight); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

// --- PendingRepository ---

// PendingRepo implements the single-slot pending entry store.
type PendingRepo struct {
	store *Store
}

// NewPendingRepo wraps the store as a PendingRepository.
func (s *Store) NewPendingRepo() *PendingRepo {
	return &PendingRepo{store: s}
}

// Get returns the pending entry, or nil.
func (r *PendingRepo) Get(ctx context.Context) (*domain.PendingEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.pending == nil {
		return nil, nil
	}
	p := *r.store.pending
	return &p, nil
}

// Set discards any existing pending entry and inserts the new one.
func (r *PendingRepo) Set(ctx context.Context, weight float64, previousWeight *float64, createdAt time.Time) (*domain.PendingEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.pendingIDCounter++
	p := domain.PendingEntry{
		ID:             r.store.pendingIDCounter,
		Weight:         weight,
		PreviousWeight: previousWeight,
		CreatedAt:      createdAt,
	}
	r.store.pending = &p
	out := p
	return &out, nil
}

// Clear empties the slot.
func (r *PendingRepo) Clear(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.pending = nil
	return nil
}

// --- SettingsRepository ---

// SettingsRepo implements the key/value settings store.
type SettingsRepo struct {
	store *Store
}

// NewSettingsRepo wraps the store as a SettingsRepository.
func (s *Store) NewSettingsRepo() *SettingsRepo {
	return &SettingsRepo{store: s}
}

// Get returns the value for key, or "".
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.settings[key], nil
}

// Set stores a value under key.
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.settings[key] = value
	return nil
}

// All returns a copy of every setting.
func (r *SettingsRepo) All(ctx context.Context) (map[string]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make(map[string]string, len(r.store.settings))
	for k, v := range r.store.settings {
		out[k] = v
	}
	return out, nil
}

// --- AuthCodeRepository ---

// AuthCodeRepo implements login-code persistence.
type AuthCodeRepo struct {
	store *Store
}

// NewAuthCodeRepo wraps the store as an AuthCodeRepository.
func (s *Store) NewAuthCodeRepo() *AuthCodeRepo {
	return &AuthCodeRepo{store: s}
}

// Create stores a new hashed code.
func (r *AuthCodeRepo) Create(ctx context.Context, phone, codeHash string, createdAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.codeIDCounter++
	r.store.codes = append(r.store.codes, domain.AuthCode{
		ID:        r.store.codeIDCounter,
		Phone:     phone,
		CodeHash:  codeHash,
		CreatedAt: createdAt,
	})
	return nil
}

// RecentCodes returns unused codes for phone created after cutoff, newest
// first.
func (r *AuthCodeRepo) RecentCodes(ctx context.Context, phone string, cutoff time.Time) ([]domain.AuthCode, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []domain.AuthCode
	for _, c := range r.store.codes {
		if c.Phone == phone && !c.Used && c.CreatedAt.After(cutoff) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MarkUsed flags a code as consumed.
func (r *AuthCodeRepo) MarkUsed(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.codes {
		if r.store.codes[i].ID == id {
			r.store.codes[i].Used = true
			return nil
		}
	}
	return nil
}

// DeleteOlderThan prunes codes created before cutoff.
func (r *AuthCodeRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.codes[:0]
	for _, c := range r.store.codes {
		if !c.CreatedAt.Before(cutoff) {
			kept = append(kept, c)
		}
	}
	r.store.codes = kept
	return nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	store *Store
}

// NewSessionRepo wraps the store as a SessionRepository.
func (s *Store) NewSessionRepo() *SessionRepo {
	return &SessionRepo{store: s}
}

// Create stores a new session.
func (r *SessionRepo) Create(ctx context.Context, id string, createdAt, expiresAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.sessions[id] = &domain.Session{
		ID:        id,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
	return nil
}

// Get returns the session with the given id, or nil.
func (r *SessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if s, ok := r.store.sessions[id]; ok {
		out := *s
		return &out, nil
	}
	return nil, nil
}

// Delete removes a session.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.sessions, id)
	return nil
}

// DeleteExpired removes every session past its expiry.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for k, v := range r.store.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.store.sessions, k)
		}
	}
	return nil
}
