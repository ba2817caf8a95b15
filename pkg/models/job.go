package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the job state machine: pending -> completed or pending -> failed.
// There are no other transitions.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is one execution attempt of a workflow, tracked to a terminal status.
// Jobs are mutated only by the durability controller and never deleted by the
// core.
type Job struct {
	ID         string     `json:"id"`
	WorkflowID string     `json:"workflow_id"`
	UserID     string     `json:"user_id"`
	Status     JobStatus  `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func NewJob(workflowID, userID string) *Job {
	return &Job{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		UserID:     userID,
		Status:     JobStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}

// JobResult is the persisted outcome of one job attempt. It is created in
// pending status together with its job and updated exactly once to a terminal
// status carrying either the result payload or a failure reason.
type JobResult struct {
	ID            string    `json:"id"`
	JobID         string    `json:"job_id"`
	Status        JobStatus `json:"status"`
	Result        any       `json:"result,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewPendingResult(jobID string) *JobResult {
	now := time.Now().UTC()

	return &JobResult{
		ID:        uuid.New().String(),
		JobID:     jobID,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewFailedResult creates a result directly in failed status. Used by the
// fallback failure path when no pending result exists for the job.
func NewFailedResult(jobID, reason string) *JobResult {
	result := NewPendingResult(jobID)
	result.Status = JobStatusFailed
	result.FailureReason = reason

	return result
}
