package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniport-dev/uni-portal-api/internal/models"
)

func TestRoomRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "capacity", "type", "created_at", "updated_at"}).
		AddRow("r1", "Amphi A", 120, string(models.RoomTypeLecture), now, now).
		AddRow("r2", "Lab 3", 24, string(models.RoomTypeLab), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, capacity, type, created_at, updated_at FROM rooms ORDER BY name ASC")).
		WillReturnRows(rows)

	rooms, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, models.RoomTypeLecture, rooms[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "level_id", "specialty_id", "student_count", "created_at", "updated_at"}).
		AddRow("g1", "L3-INFO-A", "l3", "info", 38, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM groups ORDER BY name ASC")).
		WillReturnRows(rows)

	groups, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 38, groups[0].StudentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "level_id", "teacher_id", "weekly_count", "created_at", "updated_at"}).
		AddRow("subj-1", "Algorithms", "l3", "t1", 3, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE id = $1")).
		WithArgs("subj-1").
		WillReturnRows(rows)

	subject, err := repo.FindByID(context.Background(), "subj-1")
	require.NoError(t, err)
	assert.Equal(t, 3, subject.WeeklyCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpecialtyRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSpecialtyRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "department_id", "created_at", "updated_at"}).
		AddRow("info", "Computer Science", "sciences", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM specialties ORDER BY name ASC")).
		WillReturnRows(rows)

	specialties, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, specialties, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
