package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasks-api/internal/models"
	"tasks-api/internal/storage"
)

// brokenStorage fails every write.
type brokenStorage struct {
	*storage.MemoryStorage
}

func (brokenStorage) AddTask(context.Context, models.Task) (models.Task, error) {
	return models.Task{}, errors.New("database is locked")
}

// useTestMetrics swaps the package metrics for fresh, separately registered
// collectors for the duration of the test.
func useTestMetrics(t *testing.T) *prometheus.Registry {
	t.Helper()

	originalOps := gatewayOpsCount
	originalDuration := gatewayOpDuration
	originalDescLength := taskDescLength

	registry := prometheus.NewRegistry()
	gatewayOpsCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "todoapp_gateway_operations_total", Help: "Test counter"},
		[]string{"operation", "status"},
	)
	gatewayOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "todoapp_gateway_operation_duration_seconds", Help: "Test histogram"},
		[]string{"operation"},
	)
	taskDescLength = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoapp_task_desc_length_bytes",
			Help:    "Test histogram",
			Buckets: []float64{50, 100, 500, 1000},
		},
	)
	registry.MustRegister(gatewayOpsCount, gatewayOpDuration, taskDescLength)

	t.Cleanup(func() {
		gatewayOpsCount = originalOps
		gatewayOpDuration = originalDuration
		taskDescLength = originalDescLength
	})
	return registry
}

func TestTaskManager_CRUD(t *testing.T) {
	useTestMetrics(t)
	ctx := context.Background()
	tm := NewTaskManagerWithStorage(storage.NewMemoryStorage())

	created, err := tm.Create(ctx, models.Task{Description: "buy milk"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	got, err := tm.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	got.Completed = true
	updated, err := tm.Update(ctx, created.ID, got)
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	done, err := tm.List(ctx, models.StatusCompleted.Filter())
	require.NoError(t, err)
	assert.Equal(t, []models.Task{updated}, done)

	require.NoError(t, tm.Delete(ctx, created.ID))
	_, err = tm.Get(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, tm.Ping(ctx))
}

func TestTaskManager_UpdateUsesPathID(t *testing.T) {
	useTestMetrics(t)
	ctx := context.Background()
	tm := NewTaskManagerWithStorage(storage.NewMemoryStorage())

	created, err := tm.Create(ctx, models.Task{Description: "a"})
	require.NoError(t, err)

	updated, err := tm.Update(ctx, created.ID, models.Task{ID: 500, Description: "b"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
}

func TestTaskManager_Metrics(t *testing.T) {
	registry := useTestMetrics(t)
	ctx := context.Background()
	tm := NewTaskManagerWithStorage(storage.NewMemoryStorage())

	_, err := tm.Create(ctx, models.Task{Description: "Valid description"})
	require.NoError(t, err)

	_, err = tm.Get(ctx, 42)
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(gatewayOpsCount.WithLabelValues("create", statusSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(gatewayOpsCount.WithLabelValues("get", statusNotFound)))

	metrics, err := registry.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "todoapp_task_desc_length_bytes" {
			found = true
			require.NotEmpty(t, mf.GetMetric())
			assert.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	assert.True(t, found, "description length histogram not gathered")
}

func TestTaskManager_StorageError(t *testing.T) {
	registry := useTestMetrics(t)
	tm := NewTaskManagerWithStorage(brokenStorage{storage.NewMemoryStorage()})

	_, err := tm.Create(context.Background(), models.Task{Description: "x"})
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(gatewayOpsCount.WithLabelValues("create", statusError)))

	metrics, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range metrics {
		if mf.GetName() == "todoapp_task_desc_length_bytes" {
			assert.Zero(t, mf.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
}
