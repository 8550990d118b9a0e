package scheduling

import (
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	// InstantLayout is the wire format for every instant the API returns.
	InstantLayout = "2006-01-02T15:04:05.000-07:00"
)

// CombineDateTime joins a YYYY-MM-DD date and an HH:MM clock time into a UTC
// instant with zero seconds.
func CombineDateTime(date, clock string) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, validationErr("date and time are required")
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, validationErr("invalid date %q, expected YYYY-MM-DD", date)
	}
	c, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, validationErr("invalid time %q, expected HH:MM", clock)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, time.UTC), nil
}

// ParseDate parses a YYYY-MM-DD filter value as midnight UTC.
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, validationErr("invalid date %q, expected YYYY-MM-DD", date)
	}
	return d.UTC(), nil
}

// FormatInstant renders t in UTC using InstantLayout.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2) intersect.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

func validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return validationErr("start and end are required")
	}
	if !end.After(start) {
		return validationErr("end must be after start")
	}
	return nil
}
