package jobs

import (
	"context"
	"time"

	"github.com/striderun/stride/pkg/events"
	"github.com/striderun/stride/pkg/models"
)

// recordFailure moves a job to failed with a persisted reason. It never
// returns an error: each layer falls through to a cruder one, and the last
// resort is a log line, so the caller's control flow stays on the original
// execution error.
//
// Layer 1: flip the job's pending result to failed in one transaction.
// Layer 2: the pending result is unreachable; insert a fresh failed result
// and finalize against that.
// Layer 3: nothing could be persisted; log everything we know.
func (c *Controller) recordFailure(ctx context.Context, job *models.Job, reason string) {
	// The failure may be the caller's context being aborted. Recording the
	// terminal state must still reach storage, so detach from cancellation.
	ctx = context.WithoutCancel(ctx)

	c.logger.ErrorContext(ctx, "Job failed",
		"job_id", job.ID, "workflow_id", job.WorkflowID, "reason", reason)

	if c.failViaPendingResult(ctx, job, reason) {
		c.publishFailure(ctx, job, reason)

		return
	}

	if c.failViaFreshResult(ctx, job, reason) {
		c.publishFailure(ctx, job, reason)

		return
	}

	c.logger.ErrorContext(ctx, "Failed to persist job failure; outcome exists only in logs",
		"job_id", job.ID, "workflow_id", job.WorkflowID, "reason", reason)
}

func (c *Controller) failViaPendingResult(ctx context.Context, job *models.Job, reason string) bool {
	pending, err := c.persistence.Jobs().PendingResultByJobID(ctx, job.ID)
	if err != nil {
		c.logger.WarnContext(ctx, "Pending result unavailable for failed job",
			"job_id", job.ID, "error", err)

		return false
	}

	pending.Status = models.JobStatusFailed
	pending.FailureReason = reason

	if err := c.persistence.Jobs().FinalizeJob(ctx, job.ID, models.JobStatusFailed, pending); err != nil {
		c.logger.WarnContext(ctx, "Failed to finalize job via pending result",
			"job_id", job.ID, "error", err)

		return false
	}

	return true
}

func (c *Controller) failViaFreshResult(ctx context.Context, job *models.Job, reason string) bool {
	failed := models.NewFailedResult(job.ID, reason)

	if err := c.persistence.Jobs().CreateJobResult(ctx, failed); err != nil {
		c.logger.WarnContext(ctx, "Failed to insert fallback failure result",
			"job_id", job.ID, "error", err)

		return false
	}

	if err := c.persistence.Jobs().FinalizeJob(ctx, job.ID, models.JobStatusFailed, failed); err != nil {
		c.logger.WarnContext(ctx, "Failed to finalize job via fallback result",
			"job_id", job.ID, "error", err)

		return false
	}

	return true
}

func (c *Controller) publishFailure(ctx context.Context, job *models.Job, reason string) {
	var duration time.Duration
	if job.StartedAt != nil {
		duration = time.Since(*job.StartedAt)
	}

	c.publish(ctx, job.ID, events.JobFailed{
		BaseEvent:     events.NewBaseEvent(events.JobFailedEvent, job.WorkflowID, job.ID),
		FailureReason: reason,
		Duration:      duration,
	})
}
