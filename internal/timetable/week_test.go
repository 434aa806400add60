package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekOfNormalizesToMonday(t *testing.T) {
	cases := map[string]string{
		"2026-08-31": "2026-08-31", // a Monday maps to itself
		"2026-09-02": "2026-08-31", // midweek
		"2026-09-05": "2026-08-31", // Saturday
		"2026-09-06": "2026-08-31", // Sunday belongs to the ending week
		"2026-09-07": "2026-09-07", // next Monday starts a new week
	}
	for input, wantStart := range cases {
		day, err := time.Parse("2006-01-02", input)
		require.NoError(t, err)

		w := WeekOf(day)
		assert.Equal(t, wantStart, w.Start.Format("2006-01-02"), "week of %s", input)
		assert.Equal(t, time.Monday, w.Start.Weekday())
	}
}

func TestWeekShape(t *testing.T) {
	w := WeekOf(time.Date(2026, 9, 2, 15, 30, 0, 0, time.UTC))

	require.Equal(t, TeachingDays, len(w.Dates))
	assert.Equal(t, w.Start, w.Dates[0])
	for i := 1; i < TeachingDays; i++ {
		assert.Equal(t, w.Dates[i-1].AddDate(0, 0, 1), w.Dates[i], "dates must increase by one day")
	}
	assert.Equal(t, time.Saturday, w.End().Weekday())
}

func TestParseWeek(t *testing.T) {
	w, err := ParseWeek("2026-09-03")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-31", w.Start.Format("2006-01-02"))

	_, err = ParseWeek("not-a-date")
	assert.Error(t, err)
	_, err = ParseWeek("2026-02-30")
	assert.Error(t, err)
}

func TestWeekNavigation(t *testing.T) {
	w := WeekOf(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "2026-09-07", w.Next().Start.Format("2006-01-02"))
	assert.Equal(t, "2026-08-24", w.Prev().Start.Format("2006-01-02"))
	assert.Equal(t, w.Start, w.Next().Prev().Start)
}
