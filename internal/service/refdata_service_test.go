package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniport-dev/uni-portal-api/internal/models"
	appErrors "github.com/uniport-dev/uni-portal-api/pkg/errors"
)

type refdataRepoStub struct {
	rooms       []models.Room
	groups      []models.Group
	subjects    []models.Subject
	specialties []models.Specialty
	teachers    []models.Teacher
}

func (s *refdataRepoStub) List(ctx context.Context) ([]models.Room, error) {
	return s.rooms, nil
}

func (s *refdataRepoStub) FindByID(ctx context.Context, id string) (*models.Room, error) {
	for i := range s.rooms {
		if s.rooms[i].ID == id {
			return &s.rooms[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type groupRepoStub struct{ groups []models.Group }

func (s *groupRepoStub) List(ctx context.Context) ([]models.Group, error) { return s.groups, nil }

func (s *groupRepoStub) FindByID(ctx context.Context, id string) (*models.Group, error) {
	return nil, sql.ErrNoRows
}

type subjectRepoStub struct{ subjects []models.Subject }

func (s *subjectRepoStub) List(ctx context.Context) ([]models.Subject, error) {
	return s.subjects, nil
}

func (s *subjectRepoStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	return nil, sql.ErrNoRows
}

type specialtyRepoStub struct{ specialties []models.Specialty }

func (s *specialtyRepoStub) List(ctx context.Context) ([]models.Specialty, error) {
	return s.specialties, nil
}

type teacherListerStub struct{ teachers []models.Teacher }

func (s *teacherListerStub) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	return s.teachers, nil
}

func newRefDataFixture() (*RefDataService, *refdataRepoStub) {
	rooms := &refdataRepoStub{rooms: []models.Room{{ID: "r1", Name: "Lab 1", Type: models.RoomTypeLab}}}
	groups := &groupRepoStub{groups: []models.Group{{ID: "g1", Name: "CS-101"}}}
	subjects := &subjectRepoStub{subjects: []models.Subject{{ID: "sub1", Name: "Algorithms"}}}
	specialties := &specialtyRepoStub{specialties: []models.Specialty{{ID: "sp1", Name: "Computer Science"}}}
	teachers := &teacherListerStub{teachers: []models.Teacher{{ID: "t1", FullName: "Ada Teacher"}}}
	svc := NewRefDataService(rooms, groups, subjects, specialties, teachers, nil, 0, nil)
	return svc, rooms
}

func TestRefDataServiceListsWithoutCache(t *testing.T) {
	svc, _ := newRefDataFixture()

	rooms, err := svc.Rooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Lab 1", rooms[0].Name)

	teachers, err := svc.Teachers(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "Ada Teacher", teachers[0].FullName)
}

func TestRefDataServiceObservesListQueries(t *testing.T) {
	svc, _ := newRefDataFixture()
	metrics := NewMetricsService()
	svc.AttachMetrics(metrics)

	_, err := svc.Rooms(context.Background())
	require.NoError(t, err)
	_, err = svc.Groups(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(metrics.dbQueryDuration))
}

func TestRefDataServiceRoomNotFound(t *testing.T) {
	svc, _ := newRefDataFixture()

	_, err := svc.Room(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRefDataServiceRoomByID(t *testing.T) {
	svc, _ := newRefDataFixture()

	room, err := svc.Room(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Lab 1", room.Name)
}
