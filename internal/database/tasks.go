package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gasthof/internal/models"

	"github.com/google/uuid"
)

const taskColumns = `id, type, status, booking_id, property_id, date, assigned_to, note, created_at, updated_at`

func (db *DB) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = models.TaskStatusOpen
	}

	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		task.ID,
		task.Type,
		task.Status,
		task.BookingID,
		task.PropertyID,
		task.Date.Format(models.DateOnly),
		task.AssignedTo,
		task.Note,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	task.CreatedAt = now
	task.UpdatedAt = now
	return nil
}

func (db *DB) GetTask(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	task, err := scanTask(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func (db *DB) UpdateTaskStatus(ctx context.Context, id string, taskStatus string) error {
	query := `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, taskStatus, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetTasksByProperty(ctx context.Context, propertyID string) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE property_id = ? ORDER BY date ASC`
	return db.queryTasks(ctx, query, propertyID)
}

func (db *DB) GetTasksByBooking(ctx context.Context, bookingID string) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE booking_id = ? ORDER BY date ASC`
	return db.queryTasks(ctx, query, bookingID)
}

func (db *DB) queryTasks(ctx context.Context, query string, args ...interface{}) ([]models.Task, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	var dateStr string
	err := row.Scan(
		&t.ID, &t.Type, &t.Status, &t.BookingID, &t.PropertyID,
		&dateStr, &t.AssignedTo, &t.Note, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if t.Date, err = time.Parse(models.DateOnly, dateStr); err != nil {
		return nil, fmt.Errorf("failed to parse task date %s: %w", dateStr, err)
	}
	return &t, nil
}
