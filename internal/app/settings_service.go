package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"textweight/internal/domain"
)

var (
	// ErrInvalidTimezone indicates an unloadable IANA timezone name.
	ErrInvalidTimezone = errors.New("invalid timezone")
	// ErrInvalidUnit indicates a display unit outside lbs|kg.
	ErrInvalidUnit = errors.New("invalid unit, use lbs or kg")
	// ErrNoPendingChange indicates no phone change awaits confirmation.
	ErrNoPendingChange = errors.New("no pending phone change")
	// ErrCodeExpired indicates the verification code aged out.
	ErrCodeExpired = errors.New("verification code expired")
)

// PhoneChangeWindow is how long a phone-change code stays confirmable.
const PhoneChangeWindow = 15 * time.Minute

// PhoneChange is the single slot for an in-flight phone number change.
// Created by the composition root and injected, never ambient state.
type PhoneChange struct {
	mu    sync.Mutex
	phone string
	code  string
	at    time.Time
	set   bool
}

// NewPhoneChange creates an empty slot.
func NewPhoneChange() *PhoneChange {
	return &PhoneChange{}
}

// Settings is the dashboard-facing settings view; the phone number is
// always masked.
type Settings struct {
	PhoneNumber string `json:"phone_number"`
	Timezone    string `json:"timezone"`
	DisplayUnit string `json:"display_unit"`
}

// SettingsService manages user preferences and the verified phone change
// flow.
type SettingsService struct {
	settings domain.SettingsRepository
	sender   domain.MessageSender
	change   *PhoneChange
	genCode  CodeGenerator
	now      func() time.Time
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(settings domain.SettingsRepository, sender domain.MessageSender, change *PhoneChange, genCode CodeGenerator) *SettingsService {
	return &SettingsService{
		settings: settings,
		sender:   sender,
		change:   change,
		genCode:  genCode,
		now:      time.Now,
	}
}

// Get returns the current settings with defaults applied.
func (s *SettingsService) Get(ctx context.Context) (Settings, error) {
	all, err := s.settings.All(ctx)
	if err != nil {
		return Settings{}, err
	}
	return s.view(all), nil
}

// Update validates and stores the timezone and display unit. Empty values
// leave the existing setting untouched.
func (s *SettingsService) Update(ctx context.Context, timezone, displayUnit string) (Settings, error) {
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return Settings{}, ErrInvalidTimezone
		}
		if err := s.settings.Set(ctx, domain.SettingTimezone, timezone); err != nil {
			return Settings{}, err
		}
	}
	if displayUnit != "" {
		if displayUnit != "lbs" && displayUnit != "kg" {
			return Settings{}, ErrInvalidUnit
		}
		if err := s.settings.Set(ctx, domain.SettingDisplayUnit, displayUnit); err != nil {
			return Settings{}, err
		}
	}
	return s.Get(ctx)
}

// RequestPhoneChange sends a verification code to the new number and parks
// the change in the slot. A newer request supersedes an older one.
func (s *SettingsService) RequestPhoneChange(ctx context.Context, newPhone string) error {
	normalized := NormalizePhone(newPhone)
	code := s.genCode()

	s.change.mu.Lock()
	s.change.phone = normalized
	s.change.code = code
	s.change.at = s.now()
	s.change.set = true
	s.change.mu.Unlock()

	if !s.sender.Send(ctx, normalized, "Verify your new TextWeight number: "+code) {
		s.clearChange()
		return ErrSendFailed
	}
	return nil
}

// ConfirmPhoneChange checks the code and commits the new number.
func (s *SettingsService) ConfirmPhoneChange(ctx context.Context, code string) error {
	s.change.mu.Lock()
	defer s.change.mu.Unlock()

	if !s.change.set {
		return ErrNoPendingChange
	}
	if s.now().Sub(s.change.at) > PhoneChangeWindow {
		s.change.set = false
		return ErrCodeExpired
	}
	if s.change.code != code {
		return ErrInvalidCode
	}

	if err := s.settings.Set(ctx, domain.SettingPhoneNumber, s.change.phone); err != nil {
		return err
	}
	s.change.set = false
	return nil
}

// Timezones returns the timezone names offered by the dashboard.
func (s *SettingsService) Timezones() []string {
	return []string{
		"America/New_York",
		"America/Chicago",
		"America/Denver",
		"America/Los_Angeles",
		"America/Anchorage",
		"Pacific/Honolulu",
		"Europe/London",
		"Europe/Paris",
		"Europe/Berlin",
		"Asia/Tokyo",
		"Asia/Shanghai",
		"Australia/Sydney",
	}
}

func (s *SettingsService) clearChange() {
	s.change.mu.Lock()
	s.change.set = false
	s.change.mu.Unlock()
}

func (s *SettingsService) view(all map[string]string) Settings {
	v := Settings{
		PhoneNumber: MaskPhone(all[domain.SettingPhoneNumber]),
		Timezone:    all[domain.SettingTimezone],
		DisplayUnit: all[domain.SettingDisplayUnit],
	}
	if v.Timezone == "" {
		v.Timezone = domain.DefaultTimezone
	}
	if v.DisplayUnit == "" {
		v.DisplayUnit = domain.DefaultDisplayUnit
	}
	return v
}
