package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tasks-api/internal/logger"
	"tasks-api/internal/models"
)

// Identity columns never hand out a value twice, so deleted ids stay retired.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	description TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE
)`

type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects to databaseURL and applies the schema.
func NewPostgresStorage(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres: database url is empty")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStorage{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info(ctx, "postgres storage initialized")
	return s, nil
}

func (s *PostgresStorage) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStorage) AddTask(ctx context.Context, task models.Task) (models.Task, error) {
	err := s.pool.QueryRow(ctx,
		"INSERT INTO tasks (description, completed) VALUES ($1, $2) RETURNING id",
		task.Description, task.Completed,
	).Scan(&task.ID)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (s *PostgresStorage) GetTask(ctx context.Context, id int64) (models.Task, error) {
	var task models.Task
	err := s.pool.QueryRow(ctx,
		"SELECT id, description, completed FROM tasks WHERE id = $1", id,
	).Scan(&task.ID, &task.Description, &task.Completed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
		}
		return models.Task{}, err
	}
	return task, nil
}

func (s *PostgresStorage) FilterTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := "SELECT id, description, completed FROM tasks"
	var args []any
	if filter.Completed != nil {
		query += " WHERE completed = $1"
		args = append(args, *filter.Completed)
	}
	query += " ORDER BY id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.Description, &task.Completed); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *PostgresStorage) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE tasks SET description = $1, completed = $2 WHERE id = $3",
		task.Description, task.Completed, task.ID,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	if err := requireRow(tag, task.ID); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *PostgresStorage) DeleteTask(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(tag, id)
}

func requireRow(tag pgconn.CommandTag, id int64) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}
