package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniport-dev/uni-portal-api/internal/models"
)

var conflictDay = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func existingAt(room, teacher, group, start string) models.Session {
	return models.Session{
		ID:        "existing",
		SubjectID: "subj-x",
		GroupID:   group,
		RoomID:    room,
		TeacherID: teacher,
		Date:      conflictDay,
		StartTime: start,
		EndTime:   SlotEnd(start),
		Status:    models.SessionStatusPlanned,
	}
}

func candidateAt(room, teacher, group, start string) Candidate {
	return Candidate{
		Date:      conflictDay,
		StartTime: start,
		RoomID:    room,
		TeacherID: teacher,
		GroupID:   group,
		SubjectID: "subj-y",
	}
}

func TestDetectClassifiesByResource(t *testing.T) {
	existing := []models.Session{existingAt("r1", "t1", "g1", "09:00")}

	cases := []struct {
		name      string
		candidate Candidate
		reason    string
	}{
		{"room", candidateAt("r1", "t9", "g9", "09:00"), models.ConflictReasonRoom},
		{"teacher", candidateAt("r9", "t1", "g9", "09:00"), models.ConflictReasonTeacher},
		{"group", candidateAt("r9", "t9", "g1", "09:00"), models.ConflictReasonGroup},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conflict := Detect(tc.candidate, existing)
			require.NotNil(t, conflict)
			assert.Equal(t, tc.reason, conflict.Reason)
			assert.Equal(t, "existing", conflict.Existing.ID)
			assert.Equal(t, tc.candidate.StartTime, conflict.Attempted.StartTime)
		})
	}
}

func TestDetectPriorityRoomOverTeacherOverGroup(t *testing.T) {
	existing := []models.Session{existingAt("r1", "t1", "g1", "09:00")}

	// all three resources collide at once; only the room reason surfaces
	conflict := Detect(candidateAt("r1", "t1", "g1", "09:00"), existing)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictReasonRoom, conflict.Reason)

	// teacher and group collide; teacher wins
	conflict = Detect(candidateAt("r9", "t1", "g1", "09:00"), existing)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictReasonTeacher, conflict.Reason)
}

func TestDetectIgnoresCancelledAndOtherSlots(t *testing.T) {
	cancelled := existingAt("r1", "t1", "g1", "09:00")
	cancelled.Status = models.SessionStatusCancelled
	otherSlot := existingAt("r1", "t1", "g1", "09:30")
	otherDay := existingAt("r1", "t1", "g1", "09:00")
	otherDay.Date = conflictDay.AddDate(0, 0, 1)

	existing := []models.Session{cancelled, otherSlot, otherDay}
	assert.Nil(t, Detect(candidateAt("r1", "t1", "g1", "09:00"), existing))
}

func TestFindSlotSkipsBusySlots(t *testing.T) {
	existing := []models.Session{
		existingAt("r1", "t1", "g1", "08:00"),
		existingAt("r1", "t1", "g1", "08:30"),
	}

	slot, ok := FindSlot("", conflictDay, existing, "r1", "t2", "g2")
	require.True(t, ok)
	assert.Equal(t, "09:00", slot)

	slot, ok = FindSlot("10:00", conflictDay, existing, "r1", "t2", "g2")
	require.True(t, ok)
	assert.Equal(t, "10:00", slot, "scan starts from the requested slot inclusive")
}

func TestFindSlotExhaustsDay(t *testing.T) {
	var existing []models.Session
	for _, slot := range Slots() {
		existing = append(existing, existingAt("r1", "t1", "g1", slot))
	}

	_, ok := FindSlot("", conflictDay, existing, "r1", "t2", "g2")
	assert.False(t, ok)
}
