package app

import (
	"context"
	"time"

	"textweight/internal/domain"
)

// currentDate formats "today" as YYYY-MM-DD in the named timezone. An
// unknown timezone falls back to UTC rather than failing the write path.
func currentDate(now time.Time, timezone string) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01-02")
}

// configuredTimezone reads the timezone setting, applying the default when
// unset or unreadable.
func configuredTimezone(ctx context.Context, settings domain.SettingsRepository) string {
	tz, err := settings.Get(ctx, domain.SettingTimezone)
	if err != nil || tz == "" {
		return domain.DefaultTimezone
	}
	return tz
}

// configuredDisplayUnit reads the display unit setting, applying the default
// when unset or unreadable.
func configuredDisplayUnit(ctx context.Context, settings domain.SettingsRepository) string {
	unit, err := settings.Get(ctx, domain.SettingDisplayUnit)
	if err != nil || unit == "" {
		return domain.DefaultDisplayUnit
	}
	return unit
}
