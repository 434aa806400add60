package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/uniport-dev/uni-portal-api/internal/models"
)

func TestMetricsServiceRecordsCacheOperations(t *testing.T) {
	m := NewMetricsService()

	m.RecordCacheOperation(true)
	m.RecordCacheOperation(true)
	m.RecordCacheOperation(false)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheMisses))
}

func TestMetricsServiceObservesDBQueries(t *testing.T) {
	m := NewMetricsService()

	m.ObserveDBQuery("sessions_week_range", 5*time.Millisecond)
	m.ObserveDBQuery("refdata:rooms", 2*time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(m.dbQueryDuration))
}

func TestMetricsServiceNilReceiverIsSafe(t *testing.T) {
	var m *MetricsService

	m.RecordCacheOperation(true)
	m.ObserveDBQuery("noop", time.Millisecond)
	m.ObserveHTTPRequest("GET", "/sessions", 200, time.Millisecond)
	m.ObserveGenerationRun("completed", time.Second, 1, 0)
	m.RecordBookingRejection(models.ConflictReasonRoom)
}
