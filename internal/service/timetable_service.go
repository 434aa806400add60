package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/uniport-dev/uni-portal-api/internal/models"
	"github.com/uniport-dev/uni-portal-api/internal/timetable"
	appErrors "github.com/uniport-dev/uni-portal-api/pkg/errors"
	"github.com/uniport-dev/uni-portal-api/pkg/export"
)

type weekSessionRepository interface {
	ListRange(ctx context.Context, from, to time.Time, filter models.SessionFilter) ([]models.Session, error)
}

// WeekBlock is a merged run of back-to-back sessions sharing all four
// resources, rendered as one visual block.
type WeekBlock struct {
	SubjectID  string   `json:"subject_id"`
	TeacherID  string   `json:"teacher_id"`
	GroupID    string   `json:"group_id"`
	RoomID     string   `json:"room_id"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	Status     string   `json:"status"`
	SessionIDs []string `json:"session_ids"`
}

// WeekDay groups a day's blocks under its date.
type WeekDay struct {
	Date   string      `json:"date"`
	Day    string      `json:"day"`
	Blocks []WeekBlock `json:"blocks"`
}

// WeekView is a full week of merged blocks for one scope.
type WeekView struct {
	Scope     string    `json:"scope"`
	ScopeID   string    `json:"scope_id"`
	WeekStart string    `json:"week_start"`
	WeekEnd   string    `json:"week_end"`
	Days      []WeekDay `json:"days"`
}

// TimetableService assembles merged week views per group, teacher or
// room. Views are cached in Redis with a short TTL; the cache is a
// read-through layer and the database stays the source of truth.
type TimetableService struct {
	repo     weekSessionRepository
	redis    *redis.Client
	exporter *export.PDFExporter
	metrics  *MetricsService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewTimetableService instantiates TimetableService. redis may be nil,
// in which case every view is assembled from the database.
func NewTimetableService(repo weekSessionRepository, redisClient *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		repo:     repo,
		redis:    redisClient,
		exporter: export.NewPDFExporter(),
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// AttachMetrics wires cache and query instrumentation. Optional.
func (s *TimetableService) AttachMetrics(m *MetricsService) {
	s.metrics = m
}

// ResolveWeek turns a week query ("" means the current week) plus a
// signed week offset into a concrete week.
func (s *TimetableService) ResolveWeek(raw string, offset int) (timetable.Week, error) {
	week, err := resolveWeek(raw)
	if err != nil {
		return timetable.Week{}, err
	}
	for offset > 0 {
		week = week.Next()
		offset--
	}
	for offset < 0 {
		week = week.Prev()
		offset++
	}
	return week, nil
}

// WeekViewFor returns the merged week view for a scope. scope is one of
// "group", "teacher" or "room".
func (s *TimetableService) WeekViewFor(ctx context.Context, scope, scopeID string, week timetable.Week) (*WeekView, error) {
	filter, err := scopeFilter(scope, scopeID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("timetable:week:%s:%s:%s", scope, scopeID, week.Start.Format("2006-01-02"))
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	started := time.Now()
	sessions, err := s.repo.ListRange(ctx, week.Start, week.End(), filter)
	s.metrics.ObserveDBQuery("sessions_week_range", time.Since(started))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week sessions")
	}

	view := buildWeekView(scope, scopeID, week, sessions)
	s.toCache(ctx, key, view)
	return view, nil
}

// ExportWeekPDF renders a week view as a landscape PDF table, one row
// per merged block.
func (s *TimetableService) ExportWeekPDF(ctx context.Context, scope, scopeID string, week timetable.Week) ([]byte, error) {
	view, err := s.WeekViewFor(ctx, scope, scopeID, week)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Headers: []string{"Day", "Date", "Start", "End", "Subject", "Teacher", "Group", "Room", "Status"},
	}
	for _, day := range view.Days {
		for _, block := range day.Blocks {
			data.Rows = append(data.Rows, map[string]string{
				"Day": day.Day, "Date": day.Date,
				"Start": block.StartTime, "End": block.EndTime,
				"Subject": block.SubjectID, "Teacher": block.TeacherID,
				"Group": block.GroupID, "Room": block.RoomID,
				"Status": block.Status,
			})
		}
	}

	title := fmt.Sprintf("Timetable %s %s, week of %s", scope, scopeID, view.WeekStart)
	out, err := s.exporter.Render(data, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable PDF")
	}
	return out, nil
}

// InvalidateWeek drops the cached views of every scope for a week. It
// is called after bookings and generation runs mutate the week.
func (s *TimetableService) InvalidateWeek(ctx context.Context, week timetable.Week) {
	if s.redis == nil {
		return
	}
	pattern := fmt.Sprintf("timetable:week:*:*:%s", week.Start.Format("2006-01-02"))
	iter := s.redis.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.redis.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Sugar().Warnw("failed to drop cached week view", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Sugar().Warnw("week view cache scan failed", "error", err)
	}
}

func (s *TimetableService) fromCache(ctx context.Context, key string) *WeekView {
	if s.redis == nil {
		return nil
	}
	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Sugar().Warnw("week view cache read failed", "key", key, "error", err)
		}
		s.metrics.RecordCacheOperation(false)
		return nil
	}
	var view WeekView
	if err := json.Unmarshal(raw, &view); err != nil {
		s.metrics.RecordCacheOperation(false)
		return nil
	}
	s.metrics.RecordCacheOperation(true)
	return &view
}

func (s *TimetableService) toCache(ctx context.Context, key string, view *WeekView) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Sugar().Warnw("week view cache write failed", "key", key, "error", err)
	}
}

func scopeFilter(scope, scopeID string) (models.SessionFilter, error) {
	if scopeID == "" {
		return models.SessionFilter{}, appErrors.Clone(appErrors.ErrValidation, "scope id is required")
	}
	switch scope {
	case "group":
		return models.SessionFilter{GroupID: scopeID}, nil
	case "teacher":
		return models.SessionFilter{TeacherID: scopeID}, nil
	case "room":
		return models.SessionFilter{RoomID: scopeID}, nil
	default:
		return models.SessionFilter{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown scope %q", scope))
	}
}

func buildWeekView(scope, scopeID string, week timetable.Week, sessions []models.Session) *WeekView {
	blocksByDay := make(map[string][]WeekBlock)
	for _, run := range timetable.Merge(sessions) {
		first := run[0]
		last := run[len(run)-1]
		ids := make([]string, 0, len(run))
		for _, s := range run {
			ids = append(ids, s.ID)
		}
		dayKey := first.Date.Format("2006-01-02")
		blocksByDay[dayKey] = append(blocksByDay[dayKey], WeekBlock{
			SubjectID:  first.SubjectID,
			TeacherID:  first.TeacherID,
			GroupID:    first.GroupID,
			RoomID:     first.RoomID,
			StartTime:  first.StartTime,
			EndTime:    last.EndTime,
			Status:     string(first.Status),
			SessionIDs: ids,
		})
	}

	days := make([]WeekDay, 0, timetable.TeachingDays)
	dayNames := timetable.Days()
	for i, date := range week.Dates {
		key := date.Format("2006-01-02")
		blocks := blocksByDay[key]
		if blocks == nil {
			blocks = []WeekBlock{}
		}
		days = append(days, WeekDay{Date: key, Day: dayNames[i], Blocks: blocks})
	}

	return &WeekView{
		Scope:     scope,
		ScopeID:   scopeID,
		WeekStart: week.Start.Format("2006-01-02"),
		WeekEnd:   week.End().Format("2006-01-02"),
		Days:      days,
	}
}
