// Package timetable implements the weekly scheduling core: the canonical
// time grid, week arithmetic, session merging for display, conflict
// detection over room/teacher/group exclusivity, and greedy batch
// generation with partial-success reporting. The package is pure
// computation: callers hand in a snapshot of existing sessions and get
// results back; persistence and locking live with the caller.
package timetable

import (
	"fmt"

	"github.com/uniport-dev/uni-portal-api/internal/models"
)

// SlotMinutes is the fixed width of one grid slot.
const SlotMinutes = 30

const (
	gridStartMinute = 8 * 60  // 08:00
	gridEndMinute   = 18 * 60 // 18:00, last slot start
)

var slotStarts = buildSlotStarts()

func buildSlotStarts() []string {
	slots := make([]string, 0, (gridEndMinute-gridStartMinute)/SlotMinutes+1)
	for m := gridStartMinute; m <= gridEndMinute; m += SlotMinutes {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}

var dayLabels = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Slots returns the ordered slot start times, 30-minute steps from 08:00
// through 18:00 inclusive.
func Slots() []string {
	out := make([]string, len(slotStarts))
	copy(out, slotStarts)
	return out
}

// Days returns the ordered teaching day labels, Monday through Saturday.
func Days() []string {
	out := make([]string, len(dayLabels))
	copy(out, dayLabels)
	return out
}

// SlotCount reports how many slot start times the grid holds.
func SlotCount() int {
	return len(slotStarts)
}

// SlotIndex returns the position of a start time on the grid, or -1 when
// the time is not a canonical slot boundary.
func SlotIndex(start string) int {
	for i, s := range slotStarts {
		if s == start {
			return i
		}
	}
	return -1
}

// SlotEnd returns the end time of the slot beginning at start.
func SlotEnd(start string) string {
	idx := SlotIndex(start)
	if idx < 0 {
		return ""
	}
	m := gridStartMinute + idx*SlotMinutes + SlotMinutes
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// CheckAlignment rejects candidate times that do not sit on grid
// boundaries. Misaligned input is a caller bug, surfaced before any
// conflict checking happens.
func CheckAlignment(start, end string) error {
	if SlotIndex(start) < 0 {
		return fmt.Errorf("start time %q is not aligned to the timetable grid", start)
	}
	if end != "" && end != SlotEnd(start) {
		return fmt.Errorf("end time %q does not close the %d-minute slot starting at %s", end, SlotMinutes, start)
	}
	return nil
}

// AlignSession validates a session's times against the grid.
func AlignSession(s models.Session) error {
	return CheckAlignment(s.StartTime, s.EndTime)
}
