package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/farthing/internal/dates"
)

func day(s string) time.Time {
	d, err := dates.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func bounds(t *testing.T, date string, startDay int) (string, string) {
	t.Helper()
	start, end, err := Bounds(day(date), startDay)
	require.NoError(t, err)
	return dates.Format(start), dates.Format(end)
}

func TestBoundsDayOnAnchor(t *testing.T) {
	start, end := bounds(t, "2025-01-25", 25)
	assert.Equal(t, "2025-01-25", start)
	assert.Equal(t, "2025-02-24", end)
}

func TestBoundsDayAfterAnchor(t *testing.T) {
	start, end := bounds(t, "2025-01-31", 25)
	assert.Equal(t, "2025-01-25", start)
	assert.Equal(t, "2025-02-24", end)
}

func TestBoundsDayBeforeAnchor(t *testing.T) {
	start, end := bounds(t, "2025-01-24", 25)
	assert.Equal(t, "2024-12-25", start)
	assert.Equal(t, "2025-01-24", end)
}

func TestBoundsMidCycleAndRollover(t *testing.T) {
	start, end := bounds(t, "2024-03-10", 25)
	assert.Equal(t, "2024-02-25", start)
	assert.Equal(t, "2024-03-24", end)

	start, end = bounds(t, "2024-03-25", 25)
	assert.Equal(t, "2024-03-25", start)
	assert.Equal(t, "2024-04-24", end)
}

func TestBoundsYearBoundary(t *testing.T) {
	start, end := bounds(t, "2024-12-31", 25)
	assert.Equal(t, "2024-12-25", start)
	assert.Equal(t, "2025-01-24", end)

	start, end = bounds(t, "2025-01-01", 25)
	assert.Equal(t, "2024-12-25", start)
	assert.Equal(t, "2025-01-24", end)
}

func TestBoundsStartDayOne(t *testing.T) {
	start, end := bounds(t, "2025-04-15", 1)
	assert.Equal(t, "2025-04-01", start)
	assert.Equal(t, "2025-04-30", end)
}

func TestBoundsClampsShortMonths(t *testing.T) {
	// Anchor 31 clamps to Feb 28, so Feb 28 starts a new cycle rather than
	// belonging to the January one.
	start, end := bounds(t, "2025-02-28", 31)
	assert.Equal(t, "2025-02-28", start)
	assert.Equal(t, "2025-03-30", end)

	start, end = bounds(t, "2025-02-27", 31)
	assert.Equal(t, "2025-01-31", start)
	assert.Equal(t, "2025-02-27", end)
}

func TestBoundsClampLeapYear(t *testing.T) {
	start, end := bounds(t, "2024-02-29", 30)
	assert.Equal(t, "2024-02-29", start)
	assert.Equal(t, "2024-03-29", end)
}

func TestBoundsGapFree(t *testing.T) {
	// Walking a full year day by day, every date falls inside its own
	// cycle and the cycle after any end date starts the very next day.
	for _, startDay := range []int{1, 15, 25, 28, 29, 30, 31} {
		d := day("2024-01-01")
		for d.Before(day("2025-01-01")) {
			start, end, err := Bounds(d, startDay)
			require.NoError(t, err)

			assert.False(t, d.Before(start), "day %s before cycle start %s (anchor %d)", dates.Format(d), dates.Format(start), startDay)
			assert.False(t, d.After(end), "day %s after cycle end %s (anchor %d)", dates.Format(d), dates.Format(end), startDay)

			dayAfter := end.AddDate(0, 0, 1)
			nextStart, _, err := Bounds(dayAfter, startDay)
			require.NoError(t, err)
			assert.Equal(t, dates.Format(dayAfter), dates.Format(nextStart),
				"cycle after %s does not start the next day (anchor %d)", dates.Format(end), startDay)

			d = d.AddDate(0, 0, 1)
		}
	}
}

func TestBoundsRejectsInvalidStartDay(t *testing.T) {
	for _, startDay := range []int{0, -1, 32} {
		_, _, err := Bounds(day("2025-01-15"), startDay)
		assert.Error(t, err, "startDay %d", startDay)
	}
}
