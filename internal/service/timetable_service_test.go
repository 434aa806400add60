package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniport-dev/uni-portal-api/internal/models"
	appErrors "github.com/uniport-dev/uni-portal-api/pkg/errors"
)

func newTimetableFixture(t *testing.T) (*TimetableService, *sessionRepoStub) {
	repo := newSessionRepoStub()
	svc := NewTimetableService(repo, nil, 0, nil)
	return svc, repo
}

func TestTimetableServiceResolveWeek(t *testing.T) {
	svc, _ := newTimetableFixture(t)

	week, err := svc.ResolveWeek("2026-09-09", 0)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-07", week.Start.Format("2006-01-02"))

	next, err := svc.ResolveWeek("2026-09-09", 1)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-14", next.Start.Format("2006-01-02"))

	prev, err := svc.ResolveWeek("2026-09-09", -2)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-24", prev.Start.Format("2006-01-02"))
}

func TestTimetableServiceWeekViewObservesQuery(t *testing.T) {
	svc, repo := newTimetableFixture(t)
	repo.add(plannedSession("s1", "r1", "t1", "g1", "2026-09-07", "08:00"))
	metrics := NewMetricsService()
	svc.AttachMetrics(metrics)

	week, err := svc.ResolveWeek("2026-09-07", 0)
	require.NoError(t, err)

	_, err = svc.WeekViewFor(context.Background(), "group", "g1", week)
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(metrics.dbQueryDuration))
}

func TestTimetableServiceResolveWeekMalformed(t *testing.T) {
	svc, _ := newTimetableFixture(t)

	_, err := svc.ResolveWeek("sometime", 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceWeekViewMergesBlocks(t *testing.T) {
	svc, repo := newTimetableFixture(t)
	repo.add(plannedSession("s1", "r1", "t1", "g1", "2026-09-07", "08:00"))
	repo.add(plannedSession("s2", "r1", "t1", "g1", "2026-09-07", "08:30"))
	repo.add(plannedSession("s3", "r2", "t1", "g1", "2026-09-07", "09:00"))

	week, err := svc.ResolveWeek("2026-09-07", 0)
	require.NoError(t, err)

	view, err := svc.WeekViewFor(context.Background(), "group", "g1", week)
	require.NoError(t, err)
	assert.Equal(t, "group", view.Scope)
	assert.Equal(t, "2026-09-07", view.WeekStart)
	require.Len(t, view.Days, 6)

	monday := view.Days[0]
	assert.Equal(t, "Monday", monday.Day)
	require.Len(t, monday.Blocks, 2, "back-to-back same-room sessions merge, room change splits")
	assert.Equal(t, "08:00", monday.Blocks[0].StartTime)
	assert.Equal(t, "09:00", monday.Blocks[0].EndTime)
	assert.Equal(t, []string{"s1", "s2"}, monday.Blocks[0].SessionIDs)
	assert.Equal(t, "r2", monday.Blocks[1].RoomID)

	for _, day := range view.Days[1:] {
		assert.Empty(t, day.Blocks)
		assert.NotNil(t, day.Blocks, "empty days keep an empty slice, not null")
	}
}

func TestTimetableServiceWeekViewUnknownScope(t *testing.T) {
	svc, _ := newTimetableFixture(t)
	week, err := svc.ResolveWeek("2026-09-07", 0)
	require.NoError(t, err)

	_, err = svc.WeekViewFor(context.Background(), "building", "b1", week)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.WeekViewFor(context.Background(), "group", "", week)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceExportWeekPDF(t *testing.T) {
	svc, repo := newTimetableFixture(t)
	repo.add(plannedSession("s1", "r1", "t1", "g1", "2026-09-07", "08:00"))

	week, err := svc.ResolveWeek("2026-09-07", 0)
	require.NoError(t, err)

	out, err := svc.ExportWeekPDF(context.Background(), "group", "g1", week)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestTimetableServiceScopeFilters(t *testing.T) {
	filter, err := scopeFilter("teacher", "t9")
	require.NoError(t, err)
	assert.Equal(t, models.SessionFilter{TeacherID: "t9"}, filter)

	filter, err = scopeFilter("room", "r9")
	require.NoError(t, err)
	assert.Equal(t, models.SessionFilter{RoomID: "r9"}, filter)
}
