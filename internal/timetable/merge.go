package timetable

import (
	"sort"

	"github.com/uniport-dev/uni-portal-api/internal/models"
)

// Merge groups a flat session list into contiguous display blocks. A
// session extends the open block iff it shares subject, teacher, group
// and room with the block's last member and starts exactly where that
// member ends, on the same day. Flattened output is a permutation of
// the input: nothing is created, duplicated or dropped.
func Merge(sessions []models.Session) [][]models.Session {
	if len(sessions) == 0 {
		return nil
	}

	sorted := make([]models.Session, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !SameDay(sorted[i].Date, sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].StartTime < sorted[j].StartTime
	})

	groups := make([][]models.Session, 0, len(sorted))
	current := []models.Session{sorted[0]}
	for _, s := range sorted[1:] {
		if extends(current[len(current)-1], s) {
			current = append(current, s)
			continue
		}
		groups = append(groups, current)
		current = []models.Session{s}
	}
	return append(groups, current)
}

func extends(last, next models.Session) bool {
	return next.SubjectID == last.SubjectID &&
		next.TeacherID == last.TeacherID &&
		next.GroupID == last.GroupID &&
		next.RoomID == last.RoomID &&
		SameDay(next.Date, last.Date) &&
		next.StartTime == last.EndTime
}
