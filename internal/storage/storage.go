package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"tasks-api/internal/models"
)

// ErrNotFound is returned when no task has the requested id.
var ErrNotFound = errors.New("task not found")

// Storage is the persistence gateway for tasks.
type Storage interface {
	AddTask(ctx context.Context, task models.Task) (models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	FilterTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error

	// Migrate creates the schema if it does not exist yet.
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Supported drivers for Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open creates the storage for driver. dsn is the SQLite path or the
// Postgres URL and is ignored for the in-memory driver.
func Open(ctx context.Context, driver, dsn string) (Storage, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStorage(), nil
	case DriverSQLite:
		s, err := NewSQLiteStorage(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := NewPostgresStorage(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// MemoryStorage keeps tasks in process memory.
type MemoryStorage struct {
	tasks  map[int64]models.Task
	nextID int64
	mu     sync.Mutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tasks:  make(map[int64]models.Task),
		nextID: 1,
	}
}

func (m *MemoryStorage) AddTask(_ context.Context, task models.Task) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task.ID = m.nextID
	m.tasks[task.ID] = task
	m.nextID++

	return task, nil
}

func (m *MemoryStorage) GetTask(_ context.Context, id int64) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return task, nil
}

func (m *MemoryStorage) FilterTasks(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	tasks := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		if task := m.tasks[id]; filter.Matches(task) {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (m *MemoryStorage) UpdateTask(_ context.Context, task models.Task) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[task.ID]; !ok {
		return models.Task{}, fmt.Errorf("task %d: %w", task.ID, ErrNotFound)
	}
	m.tasks[task.ID] = task
	return task, nil
}

func (m *MemoryStorage) DeleteTask(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	delete(m.tasks, id)
	return nil
}

func (m *MemoryStorage) Migrate(context.Context) error { return nil }

func (m *MemoryStorage) Ping(context.Context) error { return nil }

func (m *MemoryStorage) Close() error { return nil }
