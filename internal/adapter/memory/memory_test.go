package memory

import (
	"context"
	"testing"
	"time"
)

func TestUpsert_SameDateOverwrites(t *testing.T) {
	store := New()
	ctx := context.Background()

	first, err := store.Upsert(ctx, "2026-08-30", 185)
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Upsert(ctx, "2026-08-30", 186)
	if err != nil {
		t.Fatal(err)
	}

	if second.ID != first.ID {
		t.Errorf("id changed on upsert: %d -> %d", first.ID, second.ID)
	}
	if second.Weight != 186 {
		t.Errorf("weight = %v; want 186", second.Weight)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("created_at changed on upsert")
	}

	all, _ := store.List(ctx)
	if len(all) != 1 {
		t.Fatalf("entries = %d; want 1", len(all))
	}
}

func TestGetLast_ByDateNotInsertion(t *testing.T) {
	store := New()
	ctx := context.Background()

	_, _ = store.Upsert(ctx, "2026-08-30", 186)
	_, _ = store.Upsert(ctx, "2026-08-28", 184)

	last, err := store.GetLast(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.Date != "2026-08-30" {
		t.Fatalf("last = %+v; want 2026-08-30", last)
	}
}

func TestList_NewestFirst(t *testing.T) {
	store := New()
	ctx := context.Background()

	_, _ = store.Upsert(ctx, "2026-08-28", 184)
	_, _ = store.Upsert(ctx, "2026-08-30", 186)
	_, _ = store.Upsert(ctx, "2026-08-29", 185)

	all, _ := store.List(ctx)
	want := []string{"2026-08-30", "2026-08-29", "2026-08-28"}
	for i, d := range want {
		if all[i].Date != d {
			t.Fatalf("order = %v", all)
		}
	}
}

func TestDelete(t *testing.T) {
	store := New()
	ctx := context.Background()

	e, _ := store.Upsert(ctx, "2026-08-30", 186)
	if err := store.Delete(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetByID(ctx, e.ID)
	if got != nil {
		t.Fatal("entry still present after delete")
	}
}

func TestPending_SingleSlot(t *testing.T) {
	store := New()
	repo := store.NewPendingRepo()
	ctx := context.Background()

	prev := 180.0
	now := time.Now()
	_, err := repo.Set(ctx, 200, &prev, now)
	if err != nil {
		t.Fatal(err)
	}
	second, err := repo.Set(ctx, 210, &prev, now.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}

	got, _ := repo.Get(ctx)
	if got == nil || got.ID != second.ID || got.Weight != 210 {
		t.Fatalf("pending = %+v; want only the newest", got)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.Get(ctx)
	if got != nil {
		t.Fatal("slot not empty after clear")
	}
}

func TestSettings(t *testing.T) {
	store := New()
	repo := store.NewSettingsRepo()
	ctx := context.Background()

	if v, _ := repo.Get(ctx, "missing"); v != "" {
		t.Fatalf("missing key = %q; want empty", v)
	}
	if err := repo.Set(ctx, "timezone", "Europe/London"); err != nil {
		t.Fatal(err)
	}
	if v, _ := repo.Get(ctx, "timezone"); v != "Europe/London" {
		t.Fatalf("timezone = %q", v)
	}
	all, _ := repo.All(ctx)
	if all["timezone"] != "Europe/London" {
		t.Fatalf("all = %v", all)
	}
}

func TestAuthCodes_RecentAndCleanup(t *testing.T) {
	store := New()
	repo := store.NewAuthCodeRepo()
	ctx := context.Background()

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	_ = repo.Create(ctx, "+15551234567", "hash-old", base.Add(-2*time.Hour))
	_ = repo.Create(ctx, "+15551234567", "hash-new", base)
	_ = repo.Create(ctx, "+15559999999", "hash-other", base)

	recent, err := repo.RecentCodes(ctx, "+15551234567", base.Add(-15*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].CodeHash != "hash-new" {
		t.Fatalf("recent = %+v", recent)
	}

	// Used codes drop out.
	if err := repo.MarkUsed(ctx, recent[0].ID); err != nil {
		t.Fatal(err)
	}
	recent, _ = repo.RecentCodes(ctx, "+15551234567", base.Add(-15*time.Minute))
	if len(recent) != 0 {
		t.Fatalf("recent after MarkUsed = %+v", recent)
	}

	if err := repo.DeleteOlderThan(ctx, base.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	old, _ := repo.RecentCodes(ctx, "+15551234567", base.Add(-3*time.Hour))
	for _, c := range old {
		if c.CodeHash == "hash-old" {
			t.Fatal("old code survived cleanup")
		}
	}
}

func TestSessions(t *testing.T) {
	store := New()
	repo := store.NewSessionRepo()
	ctx := context.Background()

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	_ = repo.Create(ctx, "live", base, base.Add(time.Hour))
	_ = repo.Create(ctx, "stale", base.Add(-2*time.Hour), base.Add(-time.Hour))

	if err := repo.DeleteExpired(ctx, base); err != nil {
		t.Fatal(err)
	}
	if s, _ := repo.Get(ctx, "stale"); s != nil {
		t.Fatal("expired session survived cleanup")
	}
	if s, _ := repo.Get(ctx, "live"); s == nil {
		t.Fatal("live session deleted")
	}

	if err := repo.Delete(ctx, "live"); err != nil {
		t.Fatal(err)
	}
	if s, _ := repo.Get(ctx, "live"); s != nil {
		t.Fatal("session still present after delete")
	}
}
