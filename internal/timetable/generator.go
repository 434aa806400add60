package timetable

import (
	"time"

	"github.com/uniport-dev/uni-portal-api/internal/models"
)

// UnplacedReason is recorded when an occurrence has no valid slot
// anywhere in the horizon.
const UnplacedReason = "no free room/day combination in horizon"

// DemandItem is one entry of the generator worklist: a subject owed a
// number of weekly sessions to a group. Rooms are tried in listed
// order. A preferred date+slot pins the first occurrence; when the pin
// is rejected the rejection is reported and the scan takes over.
type DemandItem struct {
	SubjectID      string
	GroupID        string
	TeacherID      string
	Required       int
	RoomCandidates []string
	PreferredDate  *time.Time
	PreferredSlot  string
}

// GenerateResult carries everything one generator run produced. It is
// returned even when both failure lists are non-empty: a partial
// shortfall never fails the batch.
type GenerateResult struct {
	Sessions  []models.Session
	Conflicts []models.ScheduleConflict
	Unplaced  []models.UnplacedSession
}

// Summary reduces the result to the reporting shape handed to callers.
func (r GenerateResult) Summary() models.AutoGenerationResult {
	out := models.AutoGenerationResult{
		Created:   len(r.Sessions),
		Conflicts: r.Conflicts,
		Unplaced:  r.Unplaced,
	}
	if out.Conflicts == nil {
		out.Conflicts = []models.ScheduleConflict{}
	}
	if out.Unplaced == nil {
		out.Unplaced = []models.UnplacedSession{}
	}
	return out
}

// Generate places the demand worklist across the week. Placement is
// greedy and online: items claim slots in input order, dates in week
// order, rooms in candidate order, and every placed session immediately
// becomes visible to later placements. For a fixed demand order and
// existing snapshot the output is identical on every run.
//
// PreferredSlot must be a grid slot start; callers validate alignment
// before building the demand list. An off-grid value is not treated as
// a pin: the occurrence goes straight to the fallback scan, with no
// conflict recorded.
func Generate(demand []DemandItem, existing []models.Session, week Week) GenerateResult {
	working := make([]models.Session, len(existing))
	copy(working, existing)

	var result GenerateResult
	for _, item := range demand {
		for occ := 0; occ < item.Required; occ++ {
			pinned := occ == 0 && item.PreferredSlot != "" && item.PreferredDate != nil

			if pinned {
				placed, conflict := tryPinned(item, working)
				if placed != nil {
					working = append(working, *placed)
					result.Sessions = append(result.Sessions, *placed)
					continue
				}
				if conflict != nil {
					result.Conflicts = append(result.Conflicts, *conflict)
				}
			}

			if placed := scanWeek(item, working, week); placed != nil {
				working = append(working, *placed)
				result.Sessions = append(result.Sessions, *placed)
				continue
			}

			result.Unplaced = append(result.Unplaced, models.UnplacedSession{
				SubjectID: item.SubjectID,
				GroupID:   item.GroupID,
				Reason:    UnplacedReason,
			})
		}
	}
	return result
}

// tryPinned attempts the explicitly requested date and slot across the
// room candidates. When every room is rejected the first rejection is
// returned so the caller can report why the pin was denied.
func tryPinned(item DemandItem, working []models.Session) (*models.Session, *models.ScheduleConflict) {
	if SlotIndex(item.PreferredSlot) < 0 {
		return nil, nil
	}
	var first *models.ScheduleConflict
	for _, roomID := range item.RoomCandidates {
		c := candidateFor(item, roomID, *item.PreferredDate, item.PreferredSlot)
		conflict := Detect(c, working)
		if conflict == nil {
			s := newSession(item, roomID, *item.PreferredDate, item.PreferredSlot)
			return &s, nil
		}
		if first == nil {
			first = conflict
		}
	}
	return nil, first
}

func scanWeek(item DemandItem, working []models.Session, week Week) *models.Session {
	for _, date := range week.Dates {
		for _, roomID := range item.RoomCandidates {
			slot, ok := FindSlot("", date, working, roomID, item.TeacherID, item.GroupID)
			if !ok {
				continue
			}
			s := newSession(item, roomID, date, slot)
			return &s
		}
	}
	return nil
}

func candidateFor(item DemandItem, roomID string, date time.Time, slot string) Candidate {
	return Candidate{
		Date:      date,
		StartTime: slot,
		RoomID:    roomID,
		TeacherID: item.TeacherID,
		GroupID:   item.GroupID,
		SubjectID: item.SubjectID,
	}
}

// newSession synthesizes a placement. The id is left empty on purpose:
// the persistence layer assigns identifiers, which keeps the generator
// free of randomness.
func newSession(item DemandItem, roomID string, date time.Time, slot string) models.Session {
	return models.Session{
		SubjectID: item.SubjectID,
		GroupID:   item.GroupID,
		RoomID:    roomID,
		TeacherID: item.TeacherID,
		Date:      date,
		StartTime: slot,
		EndTime:   SlotEnd(slot),
		Status:    models.SessionStatusPlanned,
	}
}
