package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUsesCalendarComponents(t *testing.T) {
	// 23:30 on Jan 15 in a UTC-8 zone is Jan 16 in UTC. The formatted date
	// must stay Jan 15.
	loc := time.FixedZone("PST", -8*3600)
	late := time.Date(2025, 1, 15, 23, 30, 0, 0, loc)

	assert.Equal(t, "2025-01-15", Format(late))
}

func TestFormatPadsComponents(t *testing.T) {
	assert.Equal(t, "2025-03-05", Format(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)))
}

func TestParseRoundTrip(t *testing.T) {
	d, err := Parse("2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", Format(d))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("28/02/2025")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

func TestRangeInclusive(t *testing.T) {
	start, _ := Parse("2025-01-30")
	end, _ := Parse("2025-02-02")

	days := Range(start, end)
	require.Len(t, days, 4)
	assert.Equal(t, "2025-01-30", Format(days[0]))
	assert.Equal(t, "2025-01-31", Format(days[1]))
	assert.Equal(t, "2025-02-01", Format(days[2]))
	assert.Equal(t, "2025-02-02", Format(days[3]))
}

func TestRangeSingleDay(t *testing.T) {
	d, _ := Parse("2025-06-15")
	days := Range(d, d)
	require.Len(t, days, 1)
	assert.Equal(t, "2025-06-15", Format(days[0]))
}

func TestRangeInvertedIsNil(t *testing.T) {
	start, _ := Parse("2025-06-15")
	end, _ := Parse("2025-06-14")
	assert.Nil(t, Range(start, end))
}

func TestRangeAcrossLeapDay(t *testing.T) {
	start, _ := Parse("2024-02-28")
	end, _ := Parse("2024-03-01")

	days := Range(start, end)
	require.Len(t, days, 3)
	assert.Equal(t, "2024-02-29", Format(days[1]))
}

func TestDayCount(t *testing.T) {
	start, _ := Parse("2025-07-01")
	end, _ := Parse("2025-07-30")
	assert.Equal(t, 30, DayCount(start, end))

	assert.Equal(t, 1, DayCount(start, start))

	inverted, _ := Parse("2025-06-30")
	assert.Equal(t, 0, DayCount(start, inverted))
}

func TestDayCountIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2025, 7, 1, 23, 59, 0, 0, time.UTC)
	end := time.Date(2025, 7, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 2, DayCount(start, end))
}
