package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sectorpulse/sectorpulse/internal/models"
)

// PostgresTaskRepository is the collection task ledger.
type PostgresTaskRepository struct {
	db *sql.DB
}

// NewPostgresTaskRepository creates a task ledger backed by PostgreSQL.
func NewPostgresTaskRepository(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

// Create inserts a new ledger entry. The orchestrator creates tasks already
// in the running state with started_at set.
func (r *PostgresTaskRepository) Create(ctx context.Context, task models.CollectionTask) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO collection_tasks (id, task_type, status, total_collected, started_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`,
		task.ID,
		string(task.Type),
		string(task.Status),
		task.TotalCollected,
		task.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create collection task: %w", err)
	}
	return nil
}

// Finish moves a running task to a terminal state, recording the collected
// count, the truncated error summary and the completion time. The WHERE
// guard enforces the forward-only transition: finishing a task that is not
// running is an error.
func (r *PostgresTaskRepository) Finish(ctx context.Context, id string, status models.TaskStatus, totalCollected int, errorMessage string) error {
	if !models.TaskStatusRunning.CanTransitionTo(status) {
		return fmt.Errorf("invalid task transition to %q", status)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE collection_tasks
		SET status = $2, total_collected = $3, error_message = NULLIF($4, ''), completed_at = $5
		WHERE id = $1 AND status = $6
	`,
		id,
		string(status),
		totalCollected,
		errorMessage,
		time.Now().UTC(),
		string(models.TaskStatusRunning),
	)
	if err != nil {
		return fmt.Errorf("failed to finish collection task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task %s is not running", id)
	}
	return nil
}

// List returns the most recent ledger entries.
func (r *PostgresTaskRepository) List(ctx context.Context, limit int) ([]models.CollectionTask, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_type, status, total_collected, error_message, started_at, completed_at, created_at
		FROM collection_tasks
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.CollectionTask, 0, limit)
	for rows.Next() {
		var (
			task        models.CollectionTask
			taskType    string
			status      string
			errMessage  sql.NullString
			startedAt   sql.NullTime
			completedAt sql.NullTime
		)
		if err := rows.Scan(
			&task.ID, &taskType, &status, &task.TotalCollected,
			&errMessage, &startedAt, &completedAt, &task.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		task.Type = models.TaskType(taskType)
		task.Status = models.TaskStatus(status)
		task.ErrorMessage = errMessage.String
		if startedAt.Valid {
			t := startedAt.Time
			task.StartedAt = &t
		}
		if completedAt.Valid {
			t := completedAt.Time
			task.CompletedAt = &t
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read task rows: %w", err)
	}

	return tasks, nil
}
