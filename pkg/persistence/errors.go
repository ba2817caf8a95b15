package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrJobNotFound indicates a job was not found by the given identifier.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobResultNotFound indicates no job result matched the query.
	ErrJobResultNotFound = errors.New("job result not found")

	// ErrJobAlreadyTerminal indicates an attempt to finalize a job that is
	// already completed or failed.
	ErrJobAlreadyTerminal = errors.New("job already in a terminal status")
)

// JobError wraps job-related errors with additional context.
type JobError struct {
	Op    string // Operation being performed (e.g., "CreateJob", "FinalizeJob")
	JobID string
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s operation failed for job %s: %v", e.Op, e.JobID, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

func (e *JobError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewJobError creates a new job error with context.
func NewJobError(op, jobID string, err error) *JobError {
	return &JobError{Op: op, JobID: jobID, Err: err}
}

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string
	WorkflowID string
	Err        error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{Op: op, WorkflowID: workflowID, Err: err}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsJobNotFound checks if an error indicates a job was not found.
func IsJobNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound)
}

// IsJobResultNotFound checks if an error indicates a job result was not found.
func IsJobResultNotFound(err error) bool {
	return errors.Is(err, ErrJobResultNotFound)
}

// IsJobAlreadyTerminal checks if an error indicates a double finalization.
func IsJobAlreadyTerminal(err error) bool {
	return errors.Is(err, ErrJobAlreadyTerminal)
}
