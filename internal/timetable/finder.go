package timetable

import (
	"time"

	"github.com/uniport-dev/uni-portal-api/internal/models"
)

// FindSlot scans the grid forward from the given start time (inclusive)
// and returns the first slot on date where the room, teacher and group
// are all free. The boolean is false when the day's remaining slots are
// exhausted; callers fold that across the week's dates before declaring
// demand unplaceable. An empty from starts at the grid's first slot.
func FindSlot(from string, date time.Time, existing []models.Session, roomID, teacherID, groupID string) (string, bool) {
	start := 0
	if from != "" {
		start = SlotIndex(from)
		if start < 0 {
			// off-grid starting point: resume at the first slot not before it
			start = len(slotStarts)
			for i, s := range slotStarts {
				if s >= from {
					start = i
					break
				}
			}
		}
	}

	for _, slot := range slotStarts[start:] {
		c := Candidate{
			Date:      date,
			StartTime: slot,
			RoomID:    roomID,
			TeacherID: teacherID,
			GroupID:   groupID,
		}
		if !HasConflict(c, existing) {
			return slot, true
		}
	}
	return "", false
}
