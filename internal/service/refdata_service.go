package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/uniport-dev/uni-portal-api/internal/models"
	appErrors "github.com/uniport-dev/uni-portal-api/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type groupRepository interface {
	List(ctx context.Context) ([]models.Group, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type specialtyRepository interface {
	List(ctx context.Context) ([]models.Specialty, error)
}

type teacherLister interface {
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
}

// RefDataService serves the slow-changing reference catalogues that
// back every timetable screen. Lists are cached in Redis; lookups by id
// always hit the database.
type RefDataService struct {
	rooms       roomRepository
	groups      groupRepository
	subjects    subjectRepository
	specialties specialtyRepository
	teachers    teacherLister
	redis       *redis.Client
	metrics     *MetricsService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewRefDataService instantiates RefDataService. redis may be nil.
func NewRefDataService(
	rooms roomRepository,
	groups groupRepository,
	subjects subjectRepository,
	specialties specialtyRepository,
	teachers teacherLister,
	redisClient *redis.Client,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *RefDataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefDataService{
		rooms:       rooms,
		groups:      groups,
		subjects:    subjects,
		specialties: specialties,
		teachers:    teachers,
		redis:       redisClient,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// AttachMetrics wires cache and query instrumentation. Optional.
func (s *RefDataService) AttachMetrics(m *MetricsService) {
	s.metrics = m
}

// Rooms lists every room.
func (s *RefDataService) Rooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := s.cachedList(ctx, "refdata:rooms", &rooms, func() (interface{}, error) {
		return s.rooms.List(ctx)
	})
	return rooms, err
}

// Groups lists every student group.
func (s *RefDataService) Groups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := s.cachedList(ctx, "refdata:groups", &groups, func() (interface{}, error) {
		return s.groups.List(ctx)
	})
	return groups, err
}

// Subjects lists every subject.
func (s *RefDataService) Subjects(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	err := s.cachedList(ctx, "refdata:subjects", &subjects, func() (interface{}, error) {
		return s.subjects.List(ctx)
	})
	return subjects, err
}

// Specialties lists every specialty.
func (s *RefDataService) Specialties(ctx context.Context) ([]models.Specialty, error) {
	var specialties []models.Specialty
	err := s.cachedList(ctx, "refdata:specialties", &specialties, func() (interface{}, error) {
		return s.specialties.List(ctx)
	})
	return specialties, err
}

// Teachers lists every active teacher.
func (s *RefDataService) Teachers(ctx context.Context) ([]models.Teacher, error) {
	var teachers []models.Teacher
	err := s.cachedList(ctx, "refdata:teachers", &teachers, func() (interface{}, error) {
		return s.teachers.ListTeachers(ctx)
	})
	return teachers, err
}

// Room returns one room by id.
func (s *RefDataService) Room(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	return room, refdataErr(err, "room not found")
}

// Group returns one group by id.
func (s *RefDataService) Group(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, id)
	return group, refdataErr(err, "group not found")
}

// Subject returns one subject by id.
func (s *RefDataService) Subject(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, id)
	return subject, refdataErr(err, "subject not found")
}

// cachedList reads out into dest from Redis or, on a miss, from load,
// writing the loaded value back with the configured TTL.
func (s *RefDataService) cachedList(ctx context.Context, key string, dest interface{}, load func() (interface{}, error)) error {
	if s.redis != nil {
		raw, err := s.redis.Get(ctx, key).Bytes()
		if err == nil {
			if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
				s.metrics.RecordCacheOperation(true)
				return nil
			}
		} else if err != redis.Nil {
			s.logger.Sugar().Warnw("refdata cache read failed", "key", key, "error", err)
		}
		s.metrics.RecordCacheOperation(false)
	}

	started := time.Now()
	value, err := load()
	s.metrics.ObserveDBQuery(key, time.Since(started))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reference data")
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode reference data")
	}
	if unmarshalErr := json.Unmarshal(raw, dest); unmarshalErr != nil {
		return appErrors.Wrap(unmarshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode reference data")
	}

	if s.redis != nil && s.cacheTTL > 0 {
		if err := s.redis.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
			s.logger.Sugar().Warnw("refdata cache write failed", "key", key, "error", err)
		}
	}
	return nil
}

func refdataErr(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reference data")
}
