package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pratik-mahalle/opsguard/internal/domain/job"
)

// JobRepository stores job execution history
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *sql.DB) job.Repository {
	return &JobRepository{db: db}
}

// CreateExecution creates a new job execution
func (r *JobRepository) CreateExecution(ctx context.Context, e *job.Execution) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}

	query := `
		INSERT INTO job_executions (id, job_name, trigger_source, status, started_at, completed_at, duration_ms, result, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		string(e.JobName),
		e.Trigger,
		string(e.Status),
		formatTime(e.StartedAt),
		formatNullTime(e.CompletedAt),
		e.DurationMs,
		rawJSON(e.Result),
		e.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to create job execution: %w", err)
	}

	return nil
}

// UpdateExecution updates a job execution
func (r *JobRepository) UpdateExecution(ctx context.Context, e *job.Execution) error {
	query := `
		UPDATE job_executions
		SET status = $1, completed_at = $2, duration_ms = $3, result = $4, error_message = $5
		WHERE id = $6
	`

	_, err := r.db.ExecContext(ctx, query,
		string(e.Status),
		formatNullTime(e.CompletedAt),
		e.DurationMs,
		rawJSON(e.Result),
		e.ErrorMessage,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job execution: %w", err)
	}

	return nil
}

// ListExecutions lists job executions with filtering, newest first
func (r *JobRepository) ListExecutions(ctx context.Context, filter job.ExecutionFilter, limit int) ([]*job.Execution, error) {
	var w whereBuilder
	if filter.JobName != "" {
		w.add("job_name = $%d", string(filter.JobName))
	}
	if filter.Status != "" {
		w.add("status = $%d", string(filter.Status))
	}
	if limit <= 0 {
		limit = 50
	}

	where := w.clause()
	query := fmt.Sprintf(`
		SELECT id, job_name, trigger_source, status, started_at, completed_at, duration_ms, result, error_message
		FROM job_executions %s ORDER BY started_at DESC LIMIT %s
	`, where, w.bind(limit))

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list job executions: %w", err)
	}
	defer rows.Close()

	executions := make([]*job.Execution, 0, limit)
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, e)
	}

	return executions, rows.Err()
}

// GetLatestExecution returns the most recent execution of a job, or nil
func (r *JobRepository) GetLatestExecution(ctx context.Context, name job.Name) (*job.Execution, error) {
	query := `
		SELECT id, job_name, trigger_source, status, started_at, completed_at, duration_ms, result, error_message
		FROM job_executions WHERE job_name = $1 ORDER BY started_at DESC LIMIT 1
	`

	e, err := scanExecution(r.db.QueryRowContext(ctx, query, string(name)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// CleanupOldExecutions removes executions started before olderThan
func (r *JobRepository) CleanupOldExecutions(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM job_executions WHERE started_at < $1", formatTime(olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup job executions: %w", err)
	}
	return result.RowsAffected()
}

func scanExecution(row rowScanner) (*job.Execution, error) {
	var e job.Execution
	var name, status, startedAt string
	var completedAt, result sql.NullString

	err := row.Scan(&e.ID, &name, &e.Trigger, &status, &startedAt, &completedAt, &e.DurationMs, &result, &e.ErrorMessage)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan job execution: %w", err)
	}

	e.JobName = job.Name(name)
	e.Status = job.ExecutionStatus(status)
	e.StartedAt = parseTime(startedAt)
	e.CompletedAt = parseNullTime(completedAt)
	if result.Valid && result.String != "" {
		e.Result = json.RawMessage(result.String)
	}

	return &e, nil
}

func rawJSON(b json.RawMessage) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
