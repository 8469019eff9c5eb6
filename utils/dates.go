package utils

import (
	"sync"
	"time"

	"github.com/habitflow/backend/config"
)

// DateLayout is the wire format for all calendar dates. Days are
// local-calendar days in the configured zone, never UTC timestamps.
const DateLayout = "2006-01-02"

var (
	appLocation *time.Location
	locationMu  sync.Mutex
)

// AppLocation returns the single authoritative timezone for day-boundary
// computation, resolved from config. Falls back to the process local zone
// when the configured name is empty or invalid.
func AppLocation() *time.Location {
	locationMu.Lock()
	defer locationMu.Unlock()
	if appLocation != nil {
		return appLocation
	}
	name := config.Get().Timezone
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			appLocation = loc
			return appLocation
		}
		if Sugar != nil {
			Sugar.Warnf("invalid timezone %q, falling back to local", name)
		}
	}
	appLocation = time.Local
	return appLocation
}

// ResetLocationForTesting clears the cached zone. Tests only.
func ResetLocationForTesting() {
	locationMu.Lock()
	appLocation = nil
	locationMu.Unlock()
}

// FormatDate renders t as a calendar date in the app timezone.
func FormatDate(t time.Time) string {
	return t.In(AppLocation()).Format(DateLayout)
}

// Today returns the current calendar date in the app timezone.
func Today() string {
	return FormatDate(time.Now())
}

// DateOffset returns the date n days away from today (negative for past).
func DateOffset(days int) string {
	return FormatDate(time.Now().AddDate(0, 0, days))
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
