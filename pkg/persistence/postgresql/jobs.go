package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/striderun/stride/pkg/models"
	"github.com/striderun/stride/pkg/persistence"
)

// JobRepository handles job and job result database operations.
type JobRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *sql.DB, logger *slog.Logger) *JobRepository {
	return &JobRepository{db: db, logger: logger}
}

// CreateJob inserts the job and its pending result in one transaction.
func (r *JobRepository) CreateJob(ctx context.Context, job *models.Job, result *models.JobResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO jobs (id, workflow_id, user_id, status, created_at, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, job.ID, job.WorkflowID, job.UserID, job.Status, job.CreatedAt, job.StartedAt, job.FinishedAt)
	if err != nil {
		return persistence.NewJobError("CreateJob", job.ID, err)
	}

	err = insertJobResult(ctx, tx, result)
	if err != nil {
		return persistence.NewJobError("CreateJob", job.ID, err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit job creation: %w", err)
	}

	return nil
}

// JobByID returns a job by its ID.
func (r *JobRepository) JobByID(ctx context.Context, id string) (*models.Job, error) {
	query := `
		SELECT id, workflow_id, user_id, status, created_at, started_at, finished_at
		FROM jobs
		WHERE id = $1
	`

	var job models.Job

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.WorkflowID, &job.UserID, &job.Status,
		&job.CreatedAt, &job.StartedAt, &job.FinishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewJobError("JobByID", id, persistence.ErrJobNotFound)
		}

		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	return &job, nil
}

// UpdateJobStatus writes the job's current status and timestamps.
func (r *JobRepository) UpdateJobStatus(ctx context.Context, job *models.Job) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = $2, started_at = $3, finished_at = $4
		WHERE id = $1
	`, job.ID, job.Status, job.StartedAt, job.FinishedAt)
	if err != nil {
		return persistence.NewJobError("UpdateJobStatus", job.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewJobError("UpdateJobStatus", job.ID, persistence.ErrJobNotFound)
	}

	return nil
}

// FinalizeJob moves a pending job to a terminal status and stores the
// terminal result state in the same transaction. The status guard is part of
// the UPDATE, so a concurrent finalization loses cleanly.
func (r *JobRepository) FinalizeJob(ctx context.Context, jobID string, status models.JobStatus, result *models.JobResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	updated, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = $2, finished_at = $3
		WHERE id = $1 AND status = 'pending'
	`, jobID, status, now)
	if err != nil {
		return persistence.NewJobError("FinalizeJob", jobID, err)
	}

	affected, err := updated.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}

	if affected == 0 {
		err = r.classifyFinalizeConflict(ctx, tx, jobID)

		return err
	}

	err = updateJobResult(ctx, tx, result, now)
	if err != nil {
		return persistence.NewJobError("FinalizeJob", jobID, err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit job finalization: %w", err)
	}

	return nil
}

func (r *JobRepository) classifyFinalizeConflict(ctx context.Context, tx *sql.Tx, jobID string) error {
	var status models.JobStatus

	err := tx.QueryRowContext(ctx, "SELECT status FROM jobs WHERE id = $1", jobID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.NewJobError("FinalizeJob", jobID, persistence.ErrJobNotFound)
	}

	if err != nil {
		return fmt.Errorf("failed to inspect job status: %w", err)
	}

	return persistence.NewJobError("FinalizeJob", jobID, persistence.ErrJobAlreadyTerminal)
}

// PendingResultByJobID returns the job's pending result row.
func (r *JobRepository) PendingResultByJobID(ctx context.Context, jobID string) (*models.JobResult, error) {
	query := `
		SELECT id, job_id, status, result, failure_reason, created_at, updated_at
		FROM job_results
		WHERE job_id = $1 AND status = 'pending'
		ORDER BY created_at
		LIMIT 1
	`

	result, err := scanJobResult(r.db.QueryRowContext(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewJobError("PendingResultByJobID", jobID, persistence.ErrJobResultNotFound)
		}

		return nil, fmt.Errorf("failed to scan job result: %w", err)
	}

	return result, nil
}

// CreateJobResult inserts a result row on its own, outside the usual
// create/finalize pair. Used by the failure fallback path.
func (r *JobRepository) CreateJobResult(ctx context.Context, result *models.JobResult) error {
	err := insertJobResult(ctx, r.db, result)
	if err != nil {
		return persistence.NewJobError("CreateJobResult", result.JobID, err)
	}

	return nil
}

// UpdateJobResult writes a result row's current state.
func (r *JobRepository) UpdateJobResult(ctx context.Context, result *models.JobResult) error {
	err := updateJobResult(ctx, r.db, result, time.Now().UTC())
	if err != nil {
		return persistence.NewJobError("UpdateJobResult", result.JobID, err)
	}

	return nil
}

// JobResultsByJobID returns every result row recorded for a job.
func (r *JobRepository) JobResultsByJobID(ctx context.Context, jobID string) ([]*models.JobResult, error) {
	query := `
		SELECT id, job_id, status, result, failure_reason, created_at, updated_at
		FROM job_results
		WHERE job_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query job results: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	results := make([]*models.JobResult, 0)

	for rows.Next() {
		result, err := scanJobResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job result: %w", err)
		}

		results = append(results, result)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating job results: %w", err)
	}

	return results, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertJobResult(ctx context.Context, db execer, result *models.JobResult) error {
	payload, err := json.Marshal(result.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result payload: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO job_results (id, job_id, status, result, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, result.ID, result.JobID, result.Status, payload, result.FailureReason,
		result.CreatedAt, result.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert job result: %w", err)
	}

	return nil
}

func updateJobResult(ctx context.Context, db execer, result *models.JobResult, now time.Time) error {
	payload, err := json.Marshal(result.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result payload: %w", err)
	}

	result.UpdatedAt = now

	updated, err := db.ExecContext(ctx, `
		UPDATE job_results SET status = $2, result = $3, failure_reason = $4, updated_at = $5
		WHERE id = $1
	`, result.ID, result.Status, payload, result.FailureReason, result.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update job result: %w", err)
	}

	affected, err := updated.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrJobResultNotFound
	}

	return nil
}

func scanJobResult(row rowScanner) (*models.JobResult, error) {
	var (
		result  models.JobResult
		payload []byte
	)

	err := row.Scan(&result.ID, &result.JobID, &result.Status, &payload,
		&result.FailureReason, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &result.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result payload: %w", err)
		}
	}

	return &result, nil
}
