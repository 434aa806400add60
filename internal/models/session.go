package models

import "time"

// SessionStatus represents the lifecycle state of a scheduled session.
type SessionStatus string

const (
	SessionStatusPlanned   SessionStatus = "PLANNED"
	SessionStatusMakeup    SessionStatus = "MAKEUP"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// Session is one scheduled occurrence of a subject taught to a group,
// in a room, by a teacher, at a date and grid slot. Identifying fields
// are immutable once created; only the status transitions.
type Session struct {
	ID          string        `db:"id" json:"id"`
	SubjectID   string        `db:"subject_id" json:"subject_id"`
	GroupID     string        `db:"group_id" json:"group_id"`
	RoomID      string        `db:"room_id" json:"room_id"`
	TeacherID   string        `db:"teacher_id" json:"teacher_id"`
	Date        time.Time     `db:"session_date" json:"date"`
	StartTime   string        `db:"start_time" json:"start_time"`
	EndTime     string        `db:"end_time" json:"end_time"`
	Status      SessionStatus `db:"status" json:"status"`
	MakeupForID *string       `db:"makeup_for_id" json:"makeup_for_id,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// SessionFilter describes query params for listing sessions.
type SessionFilter struct {
	GroupID   string
	TeacherID string
	RoomID    string
	SubjectID string
}

// Conflict reason classifications, in priority order.
const (
	ConflictReasonRoom    = "ROOM_CONFLICT"
	ConflictReasonTeacher = "TEACHER_CONFLICT"
	ConflictReasonGroup   = "GROUP_CONFLICT"
)

// ScheduleConflict reports a collision between an attempted placement and
// an existing session. Produced per call, never persisted.
type ScheduleConflict struct {
	Reason    string  `json:"reason"`
	Existing  Session `json:"existing"`
	Attempted Session `json:"attempted"`
}

// ScheduleConflictError is returned when a booking collides with an
// existing session.
type ScheduleConflictError struct {
	Message  string           `json:"message"`
	Conflict ScheduleConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// UnplacedSession records demand the generator could not place anywhere
// in the horizon.
type UnplacedSession struct {
	SubjectID string `json:"subject_id"`
	GroupID   string `json:"group_id"`
	Reason    string `json:"reason"`
}

// AutoGenerationResult summarises one generator run: what was placed,
// what collided, and what has no room at all.
type AutoGenerationResult struct {
	Created   int                `json:"created"`
	Conflicts []ScheduleConflict `json:"conflicts"`
	Unplaced  []UnplacedSession  `json:"unplaced"`
}

// GenerationRunStatus tracks a background generation job.
type GenerationRunStatus string

const (
	GenerationRunPending   GenerationRunStatus = "PENDING"
	GenerationRunRunning   GenerationRunStatus = "RUNNING"
	GenerationRunCompleted GenerationRunStatus = "COMPLETED"
	GenerationRunFailed    GenerationRunStatus = "FAILED"
)

// GenerationRun is the stored outcome of a batch generation job,
// retrievable by id until it expires.
type GenerationRun struct {
	ID          string                `json:"id"`
	Status      GenerationRunStatus   `json:"status"`
	WeekStart   time.Time             `json:"week_start"`
	DryRun      bool                  `json:"dry_run"`
	Result      *AutoGenerationResult `json:"result,omitempty"`
	Error       string                `json:"error,omitempty"`
	RequestedBy string                `json:"requested_by,omitempty"`
	RequestedAt time.Time             `json:"requested_at"`
	FinishedAt  *time.Time            `json:"finished_at,omitempty"`
}
