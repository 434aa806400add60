package timetable

import (
	"fmt"
	"time"
)

// TeachingDays is the number of dates in one scheduling horizon.
const TeachingDays = 6

// Week is one scheduling horizon: a Monday plus the six consecutive
// teaching dates Monday through Saturday.
type Week struct {
	Start time.Time
	Dates [TeachingDays]time.Time
}

// WeekOf normalizes an arbitrary date to its Monday-start week. Sunday
// maps to the end of the previous week.
func WeekOf(t time.Time) Week {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	monday := day.AddDate(0, 0, -offset)

	w := Week{Start: monday}
	for i := 0; i < TeachingDays; i++ {
		w.Dates[i] = monday.AddDate(0, 0, i)
	}
	return w
}

// ParseWeek resolves a "2006-01-02" date string to its week. A date that
// cannot be parsed fails fast with no partial result.
func ParseWeek(raw string) (Week, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return Week{}, fmt.Errorf("malformed week date %q: %w", raw, err)
	}
	return WeekOf(t), nil
}

// Next returns the following week.
func (w Week) Next() Week {
	return WeekOf(w.Start.AddDate(0, 0, 7))
}

// Prev returns the preceding week.
func (w Week) Prev() Week {
	return WeekOf(w.Start.AddDate(0, 0, -7))
}

// End returns the last teaching date of the week (Saturday).
func (w Week) End() time.Time {
	return w.Dates[TeachingDays-1]
}

// SameDay reports whether two instants fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
