package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tasks-api/internal/logger"
	"tasks-api/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	description TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE
)`

type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens the database at path and applies the schema.
func NewSQLiteStorage(ctx context.Context, path string) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// single writer; also keeps one shared connection for :memory:
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info(ctx, "sqlite storage initialized", "path", path)
	return s, nil
}

func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) AddTask(ctx context.Context, task models.Task) (models.Task, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (description, completed) VALUES (?, ?)",
		task.Description, task.Completed,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	task.ID = id
	return task, nil
}

func (s *SQLiteStorage) GetTask(ctx context.Context, id int64) (models.Task, error) {
	var task models.Task
	err := s.db.QueryRowContext(ctx,
		"SELECT id, description, completed FROM tasks WHERE id = ?", id,
	).Scan(&task.ID, &task.Description, &task.Completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
		}
		return models.Task{}, err
	}
	return task, nil
}

func (s *SQLiteStorage) FilterTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := "SELECT id, description, completed FROM tasks"
	var args []any
	if filter.Completed != nil {
		query += " WHERE completed = ?"
		args = append(args, *filter.Completed)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (s *SQLiteStorage) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET description = ?, completed = ? WHERE id = ?",
		task.Description, task.Completed, task.ID,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	if err := checkAffected(result, task.ID); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *SQLiteStorage) DeleteTask(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return checkAffected(result, id)
}

func checkAffected(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanTasks(rows *sql.Rows) ([]models.Task, error) {
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
