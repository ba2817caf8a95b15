// Package memory provides an in-memory persistence implementation, used in
// tests and for local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/striderun/stride/pkg/models"
	"github.com/striderun/stride/pkg/persistence"
)

// Persistence keeps everything in process memory behind one lock.
type Persistence struct {
	mu        sync.RWMutex
	workflows map[string]*models.WorkflowDefinition
	jobs      map[string]*models.Job
	results   map[string]*models.JobResult
}

func NewPersistence() *Persistence {
	return &Persistence{
		workflows: make(map[string]*models.WorkflowDefinition),
		jobs:      make(map[string]*models.Job),
		results:   make(map[string]*models.JobResult),
	}
}

func (p *Persistence) Jobs() persistence.JobRepository           { return (*jobRepository)(p) }
func (p *Persistence) Workflows() persistence.WorkflowRepository { return (*workflowRepository)(p) }

func (p *Persistence) HealthCheck(_ context.Context) error { return nil }

func (p *Persistence) Close(_ context.Context) error { return nil }

type workflowRepository Persistence

func (r *workflowRepository) Workflows(_ context.Context) ([]*models.WorkflowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.WorkflowDefinition, 0, len(r.workflows))
	for _, workflow := range r.workflows {
		copied := *workflow
		out = append(out, &copied)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

func (r *workflowRepository) SaveWorkflow(_ context.Context, workflow *models.WorkflowDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	copied := *workflow
	r.workflows[workflow.ID] = &copied

	return nil
}

func (r *workflowRepository) WorkflowByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workflow, ok := r.workflows[id]
	if !ok {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	copied := *workflow

	return &copied, nil
}

func (r *workflowRepository) DeleteWorkflow(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.workflows[id]; !ok {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	delete(r.workflows, id)

	return nil
}

type jobRepository Persistence

func (r *jobRepository) CreateJob(_ context.Context, job *models.Job, result *models.JobResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobCopy := *job
	resultCopy := *result
	r.jobs[job.ID] = &jobCopy
	r.results[result.ID] = &resultCopy

	return nil
}

func (r *jobRepository) JobByID(_ context.Context, id string) (*models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, persistence.NewJobError("JobByID", id, persistence.ErrJobNotFound)
	}

	copied := *job

	return &copied, nil
}

func (r *jobRepository) UpdateJobStatus(_ context.Context, job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; !ok {
		return persistence.NewJobError("UpdateJobStatus", job.ID, persistence.ErrJobNotFound)
	}

	copied := *job
	r.jobs[job.ID] = &copied

	return nil
}

func (r *jobRepository) FinalizeJob(_ context.Context, jobID string, status models.JobStatus, result *models.JobResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return persistence.NewJobError("FinalizeJob", jobID, persistence.ErrJobNotFound)
	}

	if job.Status.Terminal() {
		return persistence.NewJobError("FinalizeJob", jobID, persistence.ErrJobAlreadyTerminal)
	}

	if _, ok := r.results[result.ID]; !ok {
		return persistence.NewJobError("FinalizeJob", jobID, persistence.ErrJobResultNotFound)
	}

	now := time.Now().UTC()
	job.Status = status
	job.FinishedAt = &now

	resultCopy := *result
	resultCopy.UpdatedAt = now
	r.results[result.ID] = &resultCopy

	return nil
}

func (r *jobRepository) PendingResultByJobID(_ context.Context, jobID string) (*models.JobResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, result := range r.results {
		if result.JobID == jobID && result.Status == models.JobStatusPending {
			copied := *result

			return &copied, nil
		}
	}

	return nil, persistence.NewJobError("PendingResultByJobID", jobID, persistence.ErrJobResultNotFound)
}

func (r *jobRepository) CreateJobResult(_ context.Context, result *models.JobResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *result
	r.results[result.ID] = &copied

	return nil
}

func (r *jobRepository) UpdateJobResult(_ context.Context, result *models.JobResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.results[result.ID]; !ok {
		return persistence.NewJobError("UpdateJobResult", result.JobID, persistence.ErrJobResultNotFound)
	}

	copied := *result
	copied.UpdatedAt = time.Now().UTC()
	r.results[result.ID] = &copied

	return nil
}

func (r *jobRepository) JobResultsByJobID(_ context.Context, jobID string) ([]*models.JobResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.JobResult

	for _, result := range r.results {
		if result.JobID == jobID {
			copied := *result
			out = append(out, &copied)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

var _ persistence.Persistence = (*Persistence)(nil)
