package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/uniport-dev/uni-portal-api/internal/models"
	"github.com/uniport-dev/uni-portal-api/internal/timetable"
	appErrors "github.com/uniport-dev/uni-portal-api/pkg/errors"
	"github.com/uniport-dev/uni-portal-api/pkg/jobs"
)

type generatorSessionRepository interface {
	ListByDateForUpdate(ctx context.Context, tx *sqlx.Tx, date time.Time) ([]models.Session, error)
	ListRange(ctx context.Context, from, to time.Time, filter models.SessionFilter) ([]models.Session, error)
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, sessions []models.Session) error
}

// DemandItemRequest is one worklist entry of a generation request.
type DemandItemRequest struct {
	SubjectID      string   `json:"subject_id" validate:"required"`
	GroupID        string   `json:"group_id" validate:"required"`
	TeacherID      string   `json:"teacher_id" validate:"required"`
	Required       int      `json:"required" validate:"required,min=1"`
	RoomCandidates []string `json:"room_candidates" validate:"required,min=1"`
	PreferredDate  string   `json:"preferred_date"`
	PreferredSlot  string   `json:"preferred_slot"`
}

// GenerateRequest asks for a batch fill of one week.
type GenerateRequest struct {
	Week   string              `json:"week" validate:"required"`
	Items  []DemandItemRequest `json:"items" validate:"required,min=1,dive"`
	DryRun bool                `json:"dry_run"`
}

// GeneratorService runs batch timetable generation as background jobs.
// A request is validated synchronously, queued, and tracked as a run
// the caller polls by id. Runs expire after a TTL.
type GeneratorService struct {
	repo      generatorSessionRepository
	tx        txProvider
	queue     *jobs.Queue
	metrics   *MetricsService
	cache     weekInvalidator
	validator *validator.Validate
	logger    *zap.Logger

	mu     sync.RWMutex
	runs   map[string]*models.GenerationRun
	inputs map[string]runInput
	runTTL time.Duration
}

type runInput struct {
	week   timetable.Week
	demand []timetable.DemandItem
	dryRun bool
}

// NewGeneratorService instantiates GeneratorService. The queue is
// attached afterwards via AttachQueue so the service's handler can be
// registered with the queue at wiring time.
func NewGeneratorService(repo generatorSessionRepository, tx txProvider, runTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *GeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if runTTL <= 0 {
		runTTL = time.Hour
	}
	return &GeneratorService{
		repo:      repo,
		tx:        tx,
		validator: validate,
		logger:    logger,
		runs:      make(map[string]*models.GenerationRun),
		inputs:    make(map[string]runInput),
		runTTL:    runTTL,
	}
}

// AttachQueue wires the background queue used for run execution.
func (s *GeneratorService) AttachQueue(q *jobs.Queue) {
	s.queue = q
}

// AttachMetrics wires run instrumentation. Optional.
func (s *GeneratorService) AttachMetrics(m *MetricsService) {
	s.metrics = m
}

// AttachCache wires week-view cache invalidation. Optional.
func (s *GeneratorService) AttachCache(c weekInvalidator) {
	s.cache = c
}

// HandleJob is the queue handler for generation jobs.
func (s *GeneratorService) HandleJob(ctx context.Context, job jobs.Job) error {
	runID, ok := job.Payload.(string)
	if !ok {
		s.logger.Sugar().Errorw("generation job with unexpected payload", "job_id", job.ID)
		return nil
	}
	s.execute(ctx, runID)
	return nil
}

// Enqueue validates the request and queues a generation run, returning
// the pending run immediately.
func (s *GeneratorService) Enqueue(ctx context.Context, req GenerateRequest, requestedBy string) (*models.GenerationRun, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}
	week, err := timetable.ParseWeek(req.Week)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	demand, err := buildDemand(req.Items)
	if err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "generation queue unavailable")
	}

	run := &models.GenerationRun{
		ID:          uuid.NewString(),
		Status:      models.GenerationRunPending,
		WeekStart:   week.Start,
		DryRun:      req.DryRun,
		RequestedBy: requestedBy,
		RequestedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.pruneLocked()
	s.runs[run.ID] = run
	s.pending(run.ID, week, demand, req.DryRun)
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: "timetable.generate", Payload: run.ID}); err != nil {
		s.mu.Lock()
		run.Status = models.GenerationRunFailed
		run.Error = "failed to queue generation run"
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue generation run")
	}

	snapshot := *run
	return &snapshot, nil
}

// GetRun returns a run by id, or not-found after it expired.
func (s *GeneratorService) GetRun(ctx context.Context, id string) (*models.GenerationRun, error) {
	s.mu.RLock()
	run, ok := s.runs[id]
	var snapshot models.GenerationRun
	if ok {
		snapshot = *run
	}
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation run not found")
	}
	return &snapshot, nil
}

func (s *GeneratorService) pending(id string, week timetable.Week, demand []timetable.DemandItem, dryRun bool) {
	s.inputs[id] = runInput{week: week, demand: demand, dryRun: dryRun}
}

// pruneLocked drops expired runs. Callers hold the write lock.
func (s *GeneratorService) pruneLocked() {
	cutoff := time.Now().UTC().Add(-s.runTTL)
	for id, run := range s.runs {
		if run.RequestedAt.Before(cutoff) {
			delete(s.runs, id)
			delete(s.inputs, id)
		}
	}
}

// execute runs one generation end to end. The week's day rows are
// locked for the whole run so the generator sees a stable snapshot and
// its inserts cannot collide with concurrent manual bookings.
func (s *GeneratorService) execute(ctx context.Context, runID string) {
	s.mu.Lock()
	run, ok := s.runs[runID]
	input, okInput := s.inputs[runID]
	if ok {
		run.Status = models.GenerationRunRunning
	}
	s.mu.Unlock()
	if !ok || !okInput {
		s.logger.Sugar().Warnw("generation run vanished before execution", "run_id", runID)
		return
	}

	started := time.Now()
	result, err := s.runGeneration(ctx, input)
	elapsed := time.Since(started)
	if err != nil {
		s.metrics.ObserveGenerationRun("failed", elapsed, 0, 0)
	} else {
		s.metrics.ObserveGenerationRun("completed", elapsed, result.Created, len(result.Conflicts))
	}

	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inputs, runID)
	run.FinishedAt = &now
	if err != nil {
		run.Status = models.GenerationRunFailed
		run.Error = err.Error()
		s.logger.Sugar().Errorw("generation run failed", "run_id", runID, "error", err)
		return
	}
	run.Status = models.GenerationRunCompleted
	run.Result = result
	s.logger.Sugar().Infow("generation run completed",
		"run_id", runID,
		"created", result.Created,
		"conflicts", len(result.Conflicts),
		"unplaced", len(result.Unplaced),
		"dry_run", input.dryRun,
	)
}

func (s *GeneratorService) runGeneration(ctx context.Context, input runInput) (*models.AutoGenerationResult, error) {
	if input.dryRun {
		existing, err := s.repo.ListRange(ctx, input.week.Start, input.week.End(), models.SessionFilter{})
		if err != nil {
			return nil, err
		}
		summary := timetable.Generate(input.demand, existing, input.week).Summary()
		return &summary, nil
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existing []models.Session
	for _, date := range input.week.Dates {
		var day []models.Session
		day, err = s.repo.ListByDateForUpdate(ctx, tx, date)
		if err != nil {
			return nil, err
		}
		existing = append(existing, day...)
	}

	result := timetable.Generate(input.demand, existing, input.week)
	if len(result.Sessions) > 0 {
		if err = s.repo.BulkCreateWithTx(ctx, tx, result.Sessions); err != nil {
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	if s.cache != nil && len(result.Sessions) > 0 {
		s.cache.InvalidateWeek(ctx, input.week)
	}
	summary := result.Summary()
	return &summary, nil
}

func buildDemand(items []DemandItemRequest) ([]timetable.DemandItem, error) {
	demand := make([]timetable.DemandItem, 0, len(items))
	for _, item := range items {
		d := timetable.DemandItem{
			SubjectID:      item.SubjectID,
			GroupID:        item.GroupID,
			TeacherID:      item.TeacherID,
			Required:       item.Required,
			RoomCandidates: item.RoomCandidates,
			PreferredSlot:  item.PreferredSlot,
		}
		if item.PreferredDate != "" {
			date, err := time.Parse("2006-01-02", item.PreferredDate)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed preferred_date")
			}
			utc := date.UTC()
			d.PreferredDate = &utc
		}
		if item.PreferredSlot != "" && timetable.SlotIndex(item.PreferredSlot) < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "preferred_slot is not aligned to the timetable grid")
		}
		demand = append(demand, d)
	}
	return demand, nil
}
