package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"textweight/internal/adapter/memory"
	"textweight/internal/domain"
)

// Mock entry repository with overridable behavior, shared by the tests in
// this package.
type mockEntryRepo struct {
	upsertFn  func(ctx context.Context, date string, weight float64) (*domain.Entry, error)
	getLastFn func(ctx context.Context) (*domain.Entry, error)
}

func (m *mockEntryRepo) Upsert(ctx context.Context, date string, weight float64) (*domain.Entry, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, date, weight)
	}
	return &domain.Entry{Date: date, Weight: weight}, nil
}

func (m *mockEntryRepo) GetLast(ctx context.Context) (*domain.Entry, error) {
	if m.getLastFn != nil {
		return m.getLastFn(ctx)
	}
	return nil, nil
}

func (m *mockEntryRepo) GetByDate(ctx context.Context, date string) (*domain.Entry, error) {
	return nil, nil
}
func (m *mockEntryRepo) GetByID(ctx context.Context, id int64) (*domain.Entry, error) {
	return nil, nil
}
func (m *mockEntryRepo) List(ctx context.Context) ([]domain.Entry, error) { return nil, nil }
func (m *mockEntryRepo) Update(ctx context.Context, id int64, weight float64) (*domain.Entry, error) {
	return nil, nil
}
func (m *mockEntryRepo) Delete(ctx context.Context, id int64) error { return nil }
func (m *mockEntryRepo) BulkImport(ctx context.Context, entries []domain.ImportEntry) (int, error) {
	return len(entries), nil
}

// Mock sender recording outbound messages.
type mockSender struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (m *mockSender) Send(ctx context.Context, to, body string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return false
	}
	m.sent = append(m.sent, to+": "+body)
	return true
}

func (m *mockSender) messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	copy(out, m.sent)
	return out
}

func newMessageService(t *testing.T) (*MessageService, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := NewMessageService(store, NewPendingSlot(store.NewPendingRepo()), store.NewSettingsRepo())
	return svc, store
}

func TestHandleMessage_FirstWeightCommitsImmediately(t *testing.T) {
	svc, store := newMessageService(t)
	ctx := context.Background()

	reply := svc.HandleMessage(ctx, "150.0")
	if reply != "Logged: 150" {
		t.Fatalf("reply = %q; want %q", reply, "Logged: 150")
	}

	last, err := store.GetLast(ctx)
	if err != nil || last == nil {
		t.Fatalf("expected committed entry, got %v, %v", last, err)
	}
	if last.Weight != 150.0 {
		t.Errorf("weight = %v; want 150", last.Weight)
	}
}

func TestHandleMessage_OutlierDefersAndCancelClears(t *testing.T) {
	svc, store := newMessageService(t)
	ctx := context.Background()

	if reply := svc.HandleMessage(ctx, "150.0"); reply != "Logged: 150" {
		t.Fatalf("setup reply = %q", reply)
	}

	// 33% change from 150.
	reply := svc.HandleMessage(ctx, "200.0")
	if reply != "200 seems unusual. Logging in 5m. CANCEL to stop." {
		t.Fatalf("outlier reply = %q", reply)
	}

	p, _ := store.NewPendingRepo().Get(ctx)
	if p == nil || p.Weight != 200.0 {
		t.Fatalf("expected pending entry for 200, got %+v", p)
	}
	if p.PreviousWeight == nil || *p.PreviousWeight != 150.0 {
		t.Errorf("previousWeight = %v; want 150", p.PreviousWeight)
	}

	if reply := svc.HandleMessage(ctx, "CANCEL"); reply != "Cancelled" {
		t.Fatalf("cancel reply = %q", reply)
	}
	if p, _ := store.NewPendingRepo().Get(ctx); p != nil {
		t.Fatalf("pending slot should be empty after cancel, got %+v", p)
	}

	// 200 was never committed.
	entries, _ := store.List(ctx)
	if len(entries) != 1 || entries[0].Weight != 150.0 {
		t.Fatalf("entries = %+v; want only the 150 entry", entries)
	}
}

func TestHandleMessage_SupersedeKeepsNewestPending(t *testing.T) {
	svc, store := newMessageService(t)
	ctx := context.Background()

	svc.HandleMessage(ctx, "150.0")
	svc.HandleMessage(ctx, "200.0")
	svc.HandleMessage(ctx, "210.0")

	p, _ := store.NewPendingRepo().Get(ctx)
	if p == nil || p.Weight != 210.0 {
		t.Fatalf("pending = %+v; want the superseding 210 entry", p)
	}
}

func TestHandleMessage_CancelWithNothingPending(t *testing.T) {
	svc, _ := newMessageService(t)

	if reply := svc.HandleMessage(context.Background(), "cancel"); reply != "Nothing pending to cancel" {
		t.Errorf("reply = %q; want %q", reply, "Nothing pending to cancel")
	}
}

func TestHandleMessage_Status(t *testing.T) {
	svc, _ := newMessageService(t)
	ctx := context.Background()

	if reply := svc.HandleMessage(ctx, "STATUS"); reply != "Nothing pending" {
		t.Fatalf("empty status = %q", reply)
	}

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	svc.HandleMessage(ctx, "150.0")
	svc.HandleMessage(ctx, "200.0")

	// 30 seconds in: 4.5 minutes remain, reported as a ceiling.
	svc.now = func() time.Time { return base.Add(30 * time.Second) }
	if reply := svc.HandleMessage(ctx, "STATUS"); reply != "Pending: 200.0 lbs (logs in 5m)" {
		t.Errorf("status = %q", reply)
	}
}

func TestHandleMessage_Last(t *testing.T) {
	svc, store := newMessageService(t)
	ctx := context.Background()

	if reply := svc.HandleMessage(ctx, "LAST"); reply != "No entries yet" {
		t.Fatalf("reply = %q", reply)
	}

	if _, err := store.Upsert(ctx, "2026-12-30", 185.0); err != nil {
		t.Fatal(err)
	}
	if reply := svc.HandleMessage(ctx, "last"); reply != "Last: 185.0 lbs on Dec 30" {
		t.Errorf("reply = %q", reply)
	}
}

func TestHandleMessage_HelpAndUnknown(t *testing.T) {
	svc, _ := newMessageService(t)
	ctx := context.Background()

	if reply := svc.HandleMessage(ctx, "HELP"); !strings.Contains(reply, "LAST, STATUS") {
		t.Errorf("help reply = %q", reply)
	}
	if reply := svc.HandleMessage(ctx, "what"); !strings.Contains(reply, "Unknown") {
		t.Errorf("unknown reply = %q", reply)
	}
}

func TestHandleMessage_StoreFailure(t *testing.T) {
	store := memory.New()
	repo := &mockEntryRepo{
		upsertFn: func(_ context.Context, _ string, _ float64) (*domain.Entry, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewMessageService(repo, NewPendingSlot(store.NewPendingRepo()), store.NewSettingsRepo())

	if reply := svc.HandleMessage(context.Background(), "150.0"); reply != "Error saving. Try again." {
		t.Errorf("reply = %q; want error reply", reply)
	}
}

func TestHandleMessage_KgDisplayUnit(t *testing.T) {
	svc, store := newMessageService(t)
	ctx := context.Background()
	_ = store.NewSettingsRepo().Set(ctx, domain.SettingDisplayUnit, "kg")

	if reply := svc.HandleMessage(ctx, "90.0"); reply != "Logged: 90" {
		t.Fatalf("reply = %q", reply)
	}

	// Stored canonically in lbs.
	last, _ := store.GetLast(ctx)
	if last == nil || !almostEqual(last.Weight, domain.KgToLbs(90), 0.001) {
		t.Fatalf("stored weight = %+v; want ~%v lbs", last, domain.KgToLbs(90))
	}
}

func almostEqual(a, b, epsilon float64) bool {
	if a > b {
		return a-b < epsilon
	}
	return b-a < epsilon
}
