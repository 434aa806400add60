package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniport-dev/uni-portal-api/internal/models"
)

const sessionColumns = "id, subject_id, group_id, room_id, teacher_id, session_date, start_time, end_time, status, makeup_for_id, created_at, updated_at"

// SessionRepository provides persistence for scheduled sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// ListRange returns sessions with dates in [from, to] ordered by date and
// start time, optionally narrowed by resource filters.
func (r *SessionRepository) ListRange(ctx context.Context, from, to time.Time, filter models.SessionFilter) ([]models.Session, error) {
	base := "FROM sessions WHERE session_date >= $1 AND session_date <= $2"
	args := []interface{}{from, to}
	var conditions []string

	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY session_date ASC, start_time ASC, id ASC", sessionColumns, base)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// FindByID loads a session by id.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE id = $1", sessionColumns)
	var s models.Session
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByDate returns all sessions on a calendar day, used as the conflict
// snapshot for a candidate placement.
func (r *SessionRepository) ListByDate(ctx context.Context, date time.Time) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE session_date = $1 ORDER BY start_time ASC, id ASC", sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, date); err != nil {
		return nil, fmt.Errorf("list sessions by date: %w", err)
	}
	return sessions, nil
}

// ListByDateForUpdate locks the day's session rows inside a transaction so
// the read, conflict check and insert run serialized against concurrent
// bookings for the same day.
func (r *SessionRepository) ListByDateForUpdate(ctx context.Context, tx *sqlx.Tx, date time.Time) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE session_date = $1 ORDER BY start_time ASC, id ASC FOR UPDATE", sessionColumns)
	var sessions []models.Session
	if err := tx.SelectContext(ctx, &sessions, query, date); err != nil {
		return nil, fmt.Errorf("lock sessions by date: %w", err)
	}
	return sessions, nil
}

// CreateWithTx stores a new session inside an existing transaction.
func (r *SessionRepository) CreateWithTx(ctx context.Context, tx *sqlx.Tx, session *models.Session) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	prepareSession(session)
	const query = `INSERT INTO sessions (id, subject_id, group_id, room_id, teacher_id, session_date, start_time, end_time, status, makeup_for_id, created_at, updated_at) VALUES (:id, :subject_id, :group_id, :room_id, :teacher_id, :session_date, :start_time, :end_time, :status, :makeup_for_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// BulkCreateWithTx inserts many sessions using an existing transaction,
// assigning identifiers to generated sessions that carry none.
func (r *SessionRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, sessions []models.Session) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	for i := range sessions {
		payload := sessions[i]
		prepareSession(&payload)
		const query = `INSERT INTO sessions (id, subject_id, group_id, room_id, teacher_id, session_date, start_time, end_time, status, makeup_for_id, created_at, updated_at) VALUES (:id, :subject_id, :group_id, :room_id, :teacher_id, :session_date, :start_time, :end_time, :status, :makeup_for_id, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, &payload); err != nil {
			return fmt.Errorf("bulk insert session: %w", err)
		}
		sessions[i] = payload
	}
	return nil
}

// UpdateStatus transitions a session's lifecycle state. Identifying
// fields are never mutated.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error {
	const query = `UPDATE sessions SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

// UpdateStatusWithTx transitions a session's state inside an existing
// transaction, used when a makeup booking retires the original session
// atomically with the new insert.
func (r *SessionRepository) UpdateStatusWithTx(ctx context.Context, tx *sqlx.Tx, id string, status models.SessionStatus) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	const query = `UPDATE sessions SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}

func prepareSession(s *models.Session) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}
