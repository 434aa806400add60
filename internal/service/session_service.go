package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/uniport-dev/uni-portal-api/internal/models"
	"github.com/uniport-dev/uni-portal-api/internal/timetable"
	appErrors "github.com/uniport-dev/uni-portal-api/pkg/errors"
)

type sessionRepository interface {
	ListRange(ctx context.Context, from, to time.Time, filter models.SessionFilter) ([]models.Session, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.Session, error)
	ListByDateForUpdate(ctx context.Context, tx *sqlx.Tx, date time.Time) ([]models.Session, error)
	CreateWithTx(ctx context.Context, tx *sqlx.Tx, session *models.Session) error
	UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error
	UpdateStatusWithTx(ctx context.Context, tx *sqlx.Tx, id string, status models.SessionStatus) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type weekInvalidator interface {
	InvalidateWeek(ctx context.Context, week timetable.Week)
}

// CreateSessionRequest describes a manual booking.
type CreateSessionRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	GroupID   string `json:"group_id" validate:"required"`
	RoomID    string `json:"room_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
}

// MakeupSessionRequest books a replacement for an existing session.
type MakeupSessionRequest struct {
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	RoomID    string `json:"room_id"`
}

// SessionService coordinates manual booking and session lifecycle. The
// conflict check runs twice: once against the snapshot for a fast
// answer, and again inside the booking transaction with the day's rows
// locked, so two concurrent requests cannot both pass and insert
// colliding sessions.
type SessionService struct {
	repo      sessionRepository
	tx        txProvider
	metrics   *MetricsService
	cache     weekInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService instantiates SessionService.
func NewSessionService(repo sessionRepository, tx txProvider, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, tx: tx, validator: validate, logger: logger}
}

// AttachMetrics wires booking instrumentation. Optional.
func (s *SessionService) AttachMetrics(m *MetricsService) {
	s.metrics = m
}

// AttachCache wires week-view cache invalidation. Optional.
func (s *SessionService) AttachCache(c weekInvalidator) {
	s.cache = c
}

func (s *SessionService) invalidateWeek(ctx context.Context, date time.Time) {
	if s.cache != nil {
		s.cache.InvalidateWeek(ctx, timetable.WeekOf(date))
	}
}

// ListWeek returns the sessions of the week containing the given date
// ("" means today), optionally narrowed by resource filters.
func (s *SessionService) ListWeek(ctx context.Context, weekRaw string, filter models.SessionFilter) ([]models.Session, timetable.Week, error) {
	week, err := resolveWeek(weekRaw)
	if err != nil {
		return nil, timetable.Week{}, err
	}
	sessions, err := s.repo.ListRange(ctx, week.Start, week.End(), filter)
	if err != nil {
		return nil, timetable.Week{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, week, nil
}

// Create books a session after grid validation and transactional
// conflict detection.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := timetable.CheckAlignment(req.StartTime, ""); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	session := models.Session{
		SubjectID: req.SubjectID,
		GroupID:   req.GroupID,
		RoomID:    req.RoomID,
		TeacherID: req.TeacherID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   timetable.SlotEnd(req.StartTime),
		Status:    models.SessionStatusPlanned,
	}

	if err := s.bookLocked(ctx, &session, ""); err != nil {
		return nil, err
	}
	s.invalidateWeek(ctx, session.Date)
	return &session, nil
}

// CheckSlot previews whether a booking would collide, reading the day
// without locks. The answer is advisory: Create re-runs the check under
// the locking discipline before inserting.
func (s *SessionService) CheckSlot(ctx context.Context, req CreateSessionRequest) (*models.ScheduleConflict, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := timetable.CheckAlignment(req.StartTime, ""); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	existing, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day sessions")
	}

	return timetable.Detect(timetable.Candidate{
		Date:      date,
		StartTime: req.StartTime,
		RoomID:    req.RoomID,
		TeacherID: req.TeacherID,
		GroupID:   req.GroupID,
		SubjectID: req.SubjectID,
	}, existing), nil
}

// Cancel transitions a planned or makeup session to CANCELLED.
func (s *SessionService) Cancel(ctx context.Context, id string) error {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Status == models.SessionStatusCancelled {
		return appErrors.Clone(appErrors.ErrConflict, "session is already cancelled")
	}
	if err := s.repo.UpdateStatus(ctx, id, models.SessionStatusCancelled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel session")
	}
	s.invalidateWeek(ctx, session.Date)
	return nil
}

// CreateMakeup books a replacement session referencing the original and
// cancels the original in the same transaction when still planned.
func (s *SessionService) CreateMakeup(ctx context.Context, originalID string, req MakeupSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid makeup payload")
	}
	original, err := s.repo.FindByID(ctx, originalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "original session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load original session")
	}
	if original.Status == models.SessionStatusMakeup {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot create a makeup for a makeup session")
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := timetable.CheckAlignment(req.StartTime, ""); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	roomID := req.RoomID
	if roomID == "" {
		roomID = original.RoomID
	}
	makeup := models.Session{
		SubjectID:   original.SubjectID,
		GroupID:     original.GroupID,
		RoomID:      roomID,
		TeacherID:   original.TeacherID,
		Date:        date,
		StartTime:   req.StartTime,
		EndTime:     timetable.SlotEnd(req.StartTime),
		Status:      models.SessionStatusMakeup,
		MakeupForID: &original.ID,
	}

	cancelID := ""
	if original.Status == models.SessionStatusPlanned {
		cancelID = original.ID
	}
	if err := s.bookLocked(ctx, &makeup, cancelID); err != nil {
		return nil, err
	}
	s.invalidateWeek(ctx, makeup.Date)
	if !timetable.SameDay(timetable.WeekOf(original.Date).Start, timetable.WeekOf(makeup.Date).Start) {
		s.invalidateWeek(ctx, original.Date)
	}
	return &makeup, nil
}

// bookLocked runs the read-check-insert sequence with the day's rows
// locked. cancelID, when set, retires that session in the same
// transaction.
func (s *SessionService) bookLocked(ctx context.Context, session *models.Session, cancelID string) error {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin booking transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	existing, lockErr := s.repo.ListByDateForUpdate(ctx, tx, session.Date)
	if lockErr != nil {
		err = appErrors.Wrap(lockErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock day sessions")
		return err
	}

	candidate := timetable.Candidate{
		Date:      session.Date,
		StartTime: session.StartTime,
		RoomID:    session.RoomID,
		TeacherID: session.TeacherID,
		GroupID:   session.GroupID,
		SubjectID: session.SubjectID,
	}
	if conflict := timetable.Detect(candidate, existing); conflict != nil {
		s.metrics.RecordBookingRejection(conflict.Reason)
		domainErr := &models.ScheduleConflictError{
			Message:  fmt.Sprintf("placement rejected: %s", conflict.Reason),
			Conflict: *conflict,
		}
		err = appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, domainErr.Message)
		return err
	}

	if err = s.repo.CreateWithTx(ctx, tx, session); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
		return err
	}
	if cancelID != "" {
		if err = s.repo.UpdateStatusWithTx(ctx, tx, cancelID, models.SessionStatusCancelled); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel original session")
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit booking")
		return err
	}
	return nil
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("malformed date %q", raw))
	}
	return t.UTC(), nil
}

func resolveWeek(raw string) (timetable.Week, error) {
	if raw == "" {
		return timetable.WeekOf(time.Now().UTC()), nil
	}
	week, err := timetable.ParseWeek(raw)
	if err != nil {
		return timetable.Week{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return week, nil
}
