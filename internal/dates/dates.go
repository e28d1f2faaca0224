// Package dates provides calendar-date helpers for the YYYY-MM-DD strings
// used throughout the score and budget cycle tables. A calendar date is a
// local year/month/day triple; converting through UTC instants shifts dates
// near midnight in non-UTC timezones, which is exactly the bug these helpers
// exist to avoid.
package dates

import (
	"fmt"
	"time"
)

// Layout is the canonical wire and storage form of a calendar date.
const Layout = "2006-01-02"

// Format renders t's local calendar date as YYYY-MM-DD. It reads the
// year/month/day components directly, so the result never shifts across a
// timezone boundary.
func Format(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// Parse converts a YYYY-MM-DD string into a midnight-UTC carrier value.
// Only the date components of the result are meaningful.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// Range returns each calendar day from start through end inclusive, ascending.
// It returns nil when end precedes start.
func Range(start, end time.Time) []time.Time {
	start = midnight(start)
	end = midnight(end)
	if end.Before(start) {
		return nil
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DayCount returns the inclusive number of calendar days from start through
// end, or 0 when end precedes start.
func DayCount(start, end time.Time) int {
	start = midnight(start)
	end = midnight(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// midnight normalizes t to 00:00 on its own calendar date, in UTC so that
// day arithmetic is immune to DST transitions.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
