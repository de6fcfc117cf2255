package domain

import (
	"context"
	"time"
)

// AuthCode is a one-time login code sent by SMS. The code itself is never
// stored; only its bcrypt hash is.
type AuthCode struct {
	ID        int64
	Phone     string
	CodeHash  string
	CreatedAt time.Time
	Used      bool
}

// Session represents an active dashboard session.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// AuthCodeRepository defines the port for login-code persistence.
type AuthCodeRepository interface {
	Create(ctx context.Context, phone, codeHash string, createdAt time.Time) error
	RecentCodes(ctx context.Context, phone string, cutoff time.Time) ([]AuthCode, error)
	MarkUsed(ctx context.Context, id int64) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) error
}

// SessionRepository defines the port for session persistence.
type SessionRepository interface {
	Create(ctx context.Context, id string, createdAt, expiresAt time.Time) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) error
}

// Setting keys used by the core.
const (
	SettingPhoneNumber = "phone_number"
	SettingTimezone    = "timezone"
	SettingDisplayUnit = "display_unit"
)

// Defaults applied when a setting has never been written.
const (
	DefaultTimezone    = "America/Chicago"
	DefaultDisplayUnit = "lbs"
)

// SettingsRepository is the port for the key/value settings store. Get
// returns an empty string for a missing key.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}
