// v0
// internal/attendance/day.go
package attendance

import (
	"strings"
	"time"
)

// dayLayouts lists the calendar layouts accepted on the wire. The sync job
// emits ISO dates while older roster sheets used US-style headers, so
// both stay valid.
var dayLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006"}

// ParseDay resolves a raw date string into a canonical UTC midnight instant
// so days compare and hash consistently across packages.
func ParseDay(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, &DayError{Raw: raw, Reason: "empty date"}
	}
	for _, layout := range dayLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return DayOf(ts), nil
		}
	}
	return time.Time{}, &DayError{Raw: raw, Reason: "unrecognized date layout"}
}

// DayOf truncates an instant to UTC midnight.
func DayOf(ts time.Time) time.Time {
	u := ts.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a canonical day using the ISO layout served by the API.
func FormatDay(day time.Time) string {
	return day.UTC().Format("2006-01-02")
}
