package manager

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tasks-api/internal/logger"
	"tasks-api/internal/models"
	"tasks-api/internal/storage"
)

var (
	gatewayOpsCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_gateway_operations_total",
			Help: "Total number of task storage operations",
		},
		[]string{"operation", "status"},
	)

	gatewayOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todoapp_gateway_operation_duration_seconds",
			Help:    "Duration of task storage operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	taskDescLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoapp_task_desc_length_bytes",
			Help:    "Length distribution of task descriptions",
			Buckets: []float64{50, 100, 500, 1000},
		},
	)
)

const (
	statusSuccess  = "success"
	statusNotFound = "not_found"
	statusError    = "error"
)

// TaskManager is the persistence gateway used by the API, CLI and bot. It
// records metrics for every storage call and implements
// crud.Repository[models.Task, models.TaskFilter].
type TaskManager struct {
	storage storage.Storage
}

func NewTaskManagerWithStorage(s storage.Storage) *TaskManager {
	return &TaskManager{storage: s}
}

func (tm *TaskManager) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	start := time.Now()

	tasks, err := tm.storage.FilterTasks(ctx, filter)
	tm.record(ctx, "list", start, err)
	return tasks, err
}

func (tm *TaskManager) Get(ctx context.Context, id int64) (models.Task, error) {
	start := time.Now()

	task, err := tm.storage.GetTask(ctx, id)
	tm.record(ctx, "get", start, err)
	return task, err
}

func (tm *TaskManager) Create(ctx context.Context, task models.Task) (models.Task, error) {
	start := time.Now()

	created, err := tm.storage.AddTask(ctx, task)
	tm.record(ctx, "create", start, err)
	if err != nil {
		return models.Task{}, err
	}

	taskDescLength.Observe(float64(len(created.Description)))
	logger.Info(ctx, "task created", "id", created.ID)
	return created, nil
}

func (tm *TaskManager) Update(ctx context.Context, id int64, task models.Task) (models.Task, error) {
	start := time.Now()

	task.ID = id
	updated, err := tm.storage.UpdateTask(ctx, task)
	tm.record(ctx, "update", start, err)
	if err != nil {
		return models.Task{}, err
	}

	logger.Info(ctx, "task updated", "id", id, "completed", updated.Completed)
	return updated, nil
}

func (tm *TaskManager) Delete(ctx context.Context, id int64) error {
	start := time.Now()

	err := tm.storage.DeleteTask(ctx, id)
	tm.record(ctx, "delete", start, err)
	if err != nil {
		return err
	}

	logger.Info(ctx, "task deleted", "id", id)
	return nil
}

// Ping checks that the storage is reachable.
func (tm *TaskManager) Ping(ctx context.Context) error {
	return tm.storage.Ping(ctx)
}

// record updates the operation metrics and logs unexpected storage errors.
func (tm *TaskManager) record(ctx context.Context, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	gatewayOpDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	status := statusSuccess
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = statusNotFound
	case err != nil:
		status = statusError
		logger.Error(ctx, err, "task storage operation failed", "operation", op, "duration", elapsed)
	}
	gatewayOpsCount.WithLabelValues(op, status).Inc()
}
