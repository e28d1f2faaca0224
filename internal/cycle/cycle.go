// Package cycle computes budget cycle boundaries. A family's budget cycle is
// a recurring monthly interval anchored on a configured start day: the cycle
// for any date runs from that day-of-month through the day before the same
// day-of-month in the following month, both inclusive.
package cycle

import (
	"fmt"
	"time"
)

// Bounds returns the inclusive start and end of the budget cycle containing
// date, for a cycle anchored on startDay (1-31).
//
// When startDay exceeds the length of a target month (say 31 in February),
// the anchor is clamped to that month's last day. Clamping keeps consecutive
// cycles gap-free and non-overlapping; letting the calendar roll the date
// into the next month would not.
func Bounds(date time.Time, startDay int) (start, end time.Time, err error) {
	if startDay < 1 || startDay > 31 {
		return time.Time{}, time.Time{}, fmt.Errorf("cycle start day %d out of range 1-31", startDay)
	}

	y, m, _ := date.Date()

	if date.Day() >= anchorDay(y, m, startDay) {
		// Cycle began this month.
		start = anchor(y, m, startDay)
		end = anchor(y, m+1, startDay).AddDate(0, 0, -1)
	} else {
		// Cycle began the previous month.
		start = anchor(y, m-1, startDay)
		end = anchor(y, m, startDay).AddDate(0, 0, -1)
	}
	return start, end, nil
}

// anchor returns midnight UTC on the cycle anchor day of the given month,
// clamped to the month's last day. month may be outside 1-12; it is
// normalized the way time.Date normalizes it.
func anchor(year int, month time.Month, startDay int) time.Time {
	y, m := normalize(year, month)
	return time.Date(y, m, anchorDay(y, m, startDay), 0, 0, 0, 0, time.UTC)
}

// anchorDay clamps startDay to the number of days in the given month.
func anchorDay(year int, month time.Month, startDay int) int {
	y, m := normalize(year, month)
	if last := daysIn(y, m); startDay > last {
		return last
	}
	return startDay
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func normalize(year int, month time.Month) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
