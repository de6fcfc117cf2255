package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"textweight/internal/adapter/memory"
	"textweight/internal/domain"
)

func newTestScheduler(entries domain.EntryRepository, store *memory.Store, sender domain.MessageSender) (*Scheduler, *PendingSlot) {
	slot := NewPendingSlot(store.NewPendingRepo())
	s := NewScheduler(entries, slot, store.NewAuthCodeRepo(), store.NewSessionRepo(), store.NewSettingsRepo(), sender)
	return s, slot
}

func TestScheduler_PromotesOnlyAfterTimeout(t *testing.T) {
	store := memory.New()
	sched, slot := newTestScheduler(store, store, &mockSender{})
	ctx := context.Background()

	created := time.Date(2026, 8, 30, 23, 58, 0, 0, time.UTC)
	if _, err := slot.Replace(ctx, 200.0, nil, created); err != nil {
		t.Fatal(err)
	}

	// One second short of the deadline: nothing happens.
	sched.now = func() time.Time { return created.Add(5*time.Minute - time.Second) }
	sched.Tick(ctx)

	if p, _ := slot.Current(ctx); p == nil {
		t.Fatal("pending entry promoted before timeout")
	}
	if entries, _ := store.List(ctx); len(entries) != 0 {
		t.Fatalf("entries = %+v; want none", entries)
	}

	// At the deadline: promoted, keyed by the promotion-time date.
	promoteAt := created.Add(5 * time.Minute)
	sched.now = func() time.Time { return promoteAt }
	sched.Tick(ctx)

	if p, _ := slot.Current(ctx); p != nil {
		t.Fatalf("pending slot not cleared after promotion: %+v", p)
	}
	wantDate := promoteAt.In(mustLoadLocation(t, domain.DefaultTimezone)).Format("2006-01-02")
	entry, err := store.GetByDate(ctx, wantDate)
	if err != nil || entry == nil {
		t.Fatalf("no entry for promotion date %s: %v", wantDate, err)
	}
	if entry.Weight != 200.0 {
		t.Errorf("weight = %v; want 200", entry.Weight)
	}
}

func TestScheduler_FailedPromotionKeepsPendingAndNotifies(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	_ = store.NewSettingsRepo().Set(ctx, domain.SettingPhoneNumber, "+15551234567")

	failing := true
	repo := &mockEntryRepo{
		upsertFn: func(c context.Context, date string, weight float64) (*domain.Entry, error) {
			if failing {
				return nil, errors.New("db down")
			}
			return store.Upsert(c, date, weight)
		},
	}
	sender := &mockSender{}
	sched, slot := newTestScheduler(repo, store, sender)

	created := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	if _, err := slot.Replace(ctx, 187.5, nil, created); err != nil {
		t.Fatal(err)
	}
	sched.now = func() time.Time { return created.Add(6 * time.Minute) }

	sched.Tick(ctx)

	if p, _ := slot.Current(ctx); p == nil {
		t.Fatal("pending entry cleared despite failed promotion")
	}
	msgs := sender.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "Failed to log 187.5") {
		t.Fatalf("notification = %v; want failure SMS", msgs)
	}

	// Next tick after recovery: retry succeeds, idempotent upsert, slot
	// cleared.
	failing = false
	sched.Tick(ctx)
	sched.Tick(ctx)

	if p, _ := slot.Current(ctx); p != nil {
		t.Fatalf("pending slot not cleared after retry: %+v", p)
	}
	entries, _ := store.List(ctx)
	if len(entries) != 1 || entries[0].Weight != 187.5 {
		t.Fatalf("entries = %+v; want exactly one 187.5 entry", entries)
	}
}

func TestScheduler_CleanupPrunesCodesAndSessions(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	codes := store.NewAuthCodeRepo()
	sessions := store.NewSessionRepo()

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	_ = codes.Create(ctx, "+15551234567", "hash-old", now.Add(-2*time.Hour))
	_ = codes.Create(ctx, "+15551234567", "hash-new", now.Add(-5*time.Minute))
	_ = sessions.Create(ctx, "expired", now.Add(-48*time.Hour), now.Add(-time.Hour))
	_ = sessions.Create(ctx, "live", now.Add(-time.Hour), now.Add(time.Hour))

	sched, _ := newTestScheduler(store, store, &mockSender{})
	sched.now = func() time.Time { return now }
	sched.Tick(ctx)

	recent, _ := codes.RecentCodes(ctx, "+15551234567", now.Add(-24*time.Hour))
	if len(recent) != 1 || recent[0].CodeHash != "hash-new" {
		t.Errorf("codes after cleanup = %+v; want only the recent one", recent)
	}
	if s, _ := sessions.Get(ctx, "expired"); s != nil {
		t.Error("expired session survived cleanup")
	}
	if s, _ := sessions.Get(ctx, "live"); s == nil {
		t.Error("live session was pruned")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	store := memory.New()
	sched, _ := newTestScheduler(store, store, &mockSender{})
	sched.interval = 10 * time.Millisecond

	sched.Start()
	sched.Start() // second start is a no-op
	time.Sleep(25 * time.Millisecond)
	sched.Stop()
	sched.Stop() // second stop is a no-op
}

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}
