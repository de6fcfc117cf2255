package app

import (
	"context"
	"testing"
	"time"

	"textweight/internal/adapter/memory"
	"textweight/internal/domain"
)

func newSettingsService(store *memory.Store, sender domain.MessageSender, code string) *SettingsService {
	return NewSettingsService(store.NewSettingsRepo(), sender, NewPhoneChange(), func() string { return code })
}

func TestSettingsGet_Defaults(t *testing.T) {
	svc := newSettingsService(memory.New(), &mockSender{}, "111111")

	got, err := svc.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Timezone != "America/Chicago" {
		t.Errorf("timezone = %q; want default", got.Timezone)
	}
	if got.DisplayUnit != "lbs" {
		t.Errorf("unit = %q; want lbs", got.DisplayUnit)
	}
	if got.PhoneNumber != "" {
		t.Errorf("phone = %q; want empty", got.PhoneNumber)
	}
}

func TestSettingsUpdate(t *testing.T) {
	store := memory.New()
	svc := newSettingsService(store, &mockSender{}, "111111")
	ctx := context.Background()

	got, err := svc.Update(ctx, "Europe/London", "kg")
	if err != nil {
		t.Fatal(err)
	}
	if got.Timezone != "Europe/London" || got.DisplayUnit != "kg" {
		t.Fatalf("settings = %+v", got)
	}

	// Empty values leave existing settings alone.
	got, err = svc.Update(ctx, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Timezone != "Europe/London" || got.DisplayUnit != "kg" {
		t.Fatalf("settings after noop = %+v", got)
	}
}

func TestSettingsUpdate_Validation(t *testing.T) {
	svc := newSettingsService(memory.New(), &mockSender{}, "111111")
	ctx := context.Background()

	if _, err := svc.Update(ctx, "Mars/Olympus_Mons", ""); err != ErrInvalidTimezone {
		t.Errorf("bad timezone err = %v; want ErrInvalidTimezone", err)
	}
	if _, err := svc.Update(ctx, "", "stone"); err != ErrInvalidUnit {
		t.Errorf("bad unit err = %v; want ErrInvalidUnit", err)
	}
}

func TestPhoneChange_RoundTrip(t *testing.T) {
	store := memory.New()
	sender := &mockSender{}
	svc := newSettingsService(store, sender, "222333")
	ctx := context.Background()

	if err := svc.RequestPhoneChange(ctx, "(555) 987-6543"); err != nil {
		t.Fatal(err)
	}
	msgs := sender.messages()
	if len(msgs) != 1 || msgs[0] != "+15559876543: Verify your new TextWeight number: 222333" {
		t.Fatalf("sent = %v", msgs)
	}

	if err := svc.ConfirmPhoneChange(ctx, "222333"); err != nil {
		t.Fatal(err)
	}
	phone, _ := store.NewSettingsRepo().Get(ctx, domain.SettingPhoneNumber)
	if phone != "+15559876543" {
		t.Errorf("stored phone = %q", phone)
	}

	// The slot is consumed on success.
	if err := svc.ConfirmPhoneChange(ctx, "222333"); err != ErrNoPendingChange {
		t.Errorf("second confirm err = %v; want ErrNoPendingChange", err)
	}
}

func TestPhoneChange_WrongCode(t *testing.T) {
	svc := newSettingsService(memory.New(), &mockSender{}, "222333")
	ctx := context.Background()

	_ = svc.RequestPhoneChange(ctx, "+15559876543")
	if err := svc.ConfirmPhoneChange(ctx, "000000"); err != ErrInvalidCode {
		t.Fatalf("err = %v; want ErrInvalidCode", err)
	}
	// A wrong code does not consume the slot.
	if err := svc.ConfirmPhoneChange(ctx, "222333"); err != nil {
		t.Fatalf("retry with right code: %v", err)
	}
}

func TestPhoneChange_Expired(t *testing.T) {
	svc := newSettingsService(memory.New(), &mockSender{}, "222333")
	ctx := context.Background()

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	_ = svc.RequestPhoneChange(ctx, "+15559876543")

	svc.now = func() time.Time { return base.Add(16 * time.Minute) }
	if err := svc.ConfirmPhoneChange(ctx, "222333"); err != ErrCodeExpired {
		t.Fatalf("err = %v; want ErrCodeExpired", err)
	}
}

func TestPhoneChange_NothingPending(t *testing.T) {
	svc := newSettingsService(memory.New(), &mockSender{}, "222333")
	if err := svc.ConfirmPhoneChange(context.Background(), "222333"); err != ErrNoPendingChange {
		t.Fatalf("err = %v; want ErrNoPendingChange", err)
	}
}

func TestPhoneChange_SendFailureClearsSlot(t *testing.T) {
	svc := newSettingsService(memory.New(), &mockSender{fail: true}, "222333")
	ctx := context.Background()

	if err := svc.RequestPhoneChange(ctx, "+15559876543"); err != ErrSendFailed {
		t.Fatalf("err = %v; want ErrSendFailed", err)
	}
	if err := svc.ConfirmPhoneChange(ctx, "222333"); err != ErrNoPendingChange {
		t.Fatalf("confirm after failed send err = %v; want ErrNoPendingChange", err)
	}
}
