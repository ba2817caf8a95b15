// Package persistence provides the data storage abstraction layer for
// workflow definitions, jobs and job results.
package persistence

import (
	"context"

	"github.com/striderun/stride/pkg/models"
)

type Persistence interface {
	Jobs() JobRepository
	Workflows() WorkflowRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	Workflows(ctx context.Context) ([]*models.WorkflowDefinition, error)
	SaveWorkflow(ctx context.Context, workflow *models.WorkflowDefinition) error
	WorkflowByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	DeleteWorkflow(ctx context.Context, id string) error
}

// JobRepository stores jobs and their results. Jobs move through exactly one
// transition, pending to a terminal status, and the terminal write updates
// the job and its result together.
type JobRepository interface {
	// CreateJob persists a job and its pending result atomically. A job is
	// never visible without a result row.
	CreateJob(ctx context.Context, job *models.Job, result *models.JobResult) error

	JobByID(ctx context.Context, id string) (*models.Job, error)

	// UpdateJobStatus records a non-terminal change, e.g. stamping started_at.
	UpdateJobStatus(ctx context.Context, job *models.Job) error

	// FinalizeJob moves a pending job to a terminal status and writes the
	// result's terminal state in the same transaction. Finalizing a job that
	// is already terminal fails with ErrJobAlreadyTerminal.
	FinalizeJob(ctx context.Context, jobID string, status models.JobStatus, result *models.JobResult) error

	PendingResultByJobID(ctx context.Context, jobID string) (*models.JobResult, error)
	CreateJobResult(ctx context.Context, result *models.JobResult) error
	UpdateJobResult(ctx context.Context, result *models.JobResult) error
	JobResultsByJobID(ctx context.Context, jobID string) ([]*models.JobResult, error)
}
