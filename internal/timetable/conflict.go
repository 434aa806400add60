package timetable

import (
	"time"

	"github.com/uniport-dev/uni-portal-api/internal/models"
)

// Candidate is a placement being tested against an existing session set.
type Candidate struct {
	Date      time.Time
	StartTime string
	RoomID    string
	TeacherID string
	GroupID   string
	SubjectID string
}

func (c Candidate) session() models.Session {
	return models.Session{
		SubjectID: c.SubjectID,
		GroupID:   c.GroupID,
		RoomID:    c.RoomID,
		TeacherID: c.TeacherID,
		Date:      c.Date,
		StartTime: c.StartTime,
		EndTime:   SlotEnd(c.StartTime),
	}
}

// Detect reports whether placing the candidate would violate a resource
// exclusivity invariant. Cancelled sessions never conflict. The grid is
// slot-aligned, so overlap reduces to start-slot equality. When several
// resources collide at once only the highest-priority reason is
// surfaced: room, then teacher, then group, so retries see the same
// reason every time.
func Detect(c Candidate, existing []models.Session) *models.ScheduleConflict {
	for _, e := range existing {
		if e.Status == models.SessionStatusCancelled {
			continue
		}
		if !SameDay(e.Date, c.Date) || e.StartTime != c.StartTime {
			continue
		}

		var reason string
		switch {
		case e.RoomID == c.RoomID:
			reason = models.ConflictReasonRoom
		case e.TeacherID == c.TeacherID:
			reason = models.ConflictReasonTeacher
		case e.GroupID == c.GroupID:
			reason = models.ConflictReasonGroup
		default:
			continue
		}
		return &models.ScheduleConflict{
			Reason:    reason,
			Existing:  e,
			Attempted: c.session(),
		}
	}
	return nil
}

// HasConflict is the predicate form of Detect.
func HasConflict(c Candidate, existing []models.Session) bool {
	return Detect(c, existing) != nil
}
