// Package jobs drives jobs through their lifecycle: created pending together
// with a pending result, executed once, and finalized to exactly one terminal
// status. A job is never left without a recorded outcome, whatever fails
// along the way.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/striderun/stride/pkg/engine"
	"github.com/striderun/stride/pkg/eventbus"
	"github.com/striderun/stride/pkg/events"
	"github.com/striderun/stride/pkg/models"
	"github.com/striderun/stride/pkg/otelhelper"
	"github.com/striderun/stride/pkg/persistence"
	"github.com/striderun/stride/pkg/statestore"
	"github.com/striderun/stride/pkg/usercontext"
)

// ErrJobNotRunnable indicates an attempt to run a job outside pending status.
var ErrJobNotRunnable = errors.New("job is not in pending status")

// WorkflowExecutor runs a workflow definition to completion. Satisfied by
// *engine.Executor.
type WorkflowExecutor interface {
	Execute(ctx context.Context, workflow *models.WorkflowDefinition, inputs map[string]any) (*engine.Result, error)
}

// Config wires the controller's collaborators. Publisher and Tracer are
// optional.
type Config struct {
	Persistence persistence.Persistence
	Executor    WorkflowExecutor
	Users       usercontext.Provider
	Publisher   eventbus.EventPublisher
	Tracer      trace.Tracer
	Logger      *slog.Logger
}

// Controller is the job durability layer.
type Controller struct {
	persistence persistence.Persistence
	executor    WorkflowExecutor
	users       usercontext.Provider
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
}

func NewController(config Config) *Controller {
	tracer := config.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("jobs")
	}

	return &Controller{
		persistence: config.Persistence,
		executor:    config.Executor,
		users:       config.Users,
		publisher:   config.Publisher,
		tracer:      tracer,
		logger:      config.Logger.With("module", "jobs"),
	}
}

// CreateJob creates a pending job and its pending result atomically. The
// workflow must exist.
func (c *Controller) CreateJob(ctx context.Context, workflowID, userID string) (*models.Job, error) {
	workflow, err := c.persistence.Workflows().WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	job := models.NewJob(workflow.ID, userID)
	pending := models.NewPendingResult(job.ID)

	if err := c.persistence.Jobs().CreateJob(ctx, job, pending); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "Job created", "job_id", job.ID, "workflow_id", workflow.ID)

	c.publish(ctx, job.ID, events.JobCreated{
		BaseEvent: events.NewBaseEvent(events.JobCreatedEvent, workflow.ID, job.ID),
		UserID:    userID,
	})

	return job, nil
}

// Run executes a pending job to a terminal status. Whatever the workflow
// does, the job ends completed or failed with a matching result row; Run
// returns the execution error so callers can surface it.
func (c *Controller) Run(ctx context.Context, jobID string) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "jobs.run",
		attribute.String(otelhelper.JobIDKey, jobID))
	defer span.End()

	job, err := c.persistence.Jobs().JobByID(ctx, jobID)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	if job.Status != models.JobStatusPending {
		err := fmt.Errorf("%w: job %s is %s", ErrJobNotRunnable, job.ID, job.Status)
		otelhelper.SetError(span, err)

		return err
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowIDKey, job.WorkflowID))

	started := time.Now().UTC()
	job.StartedAt = &started

	if err := c.persistence.Jobs().UpdateJobStatus(ctx, job); err != nil {
		c.logger.WarnContext(ctx, "Failed to stamp job start time", "job_id", job.ID, "error", err)
	}

	workflow, err := c.persistence.Workflows().WorkflowByID(ctx, job.WorkflowID)
	if err != nil {
		c.recordFailure(ctx, job, fmt.Sprintf("loading workflow: %v", err))
		otelhelper.SetError(span, err)

		return err
	}

	inputs, err := c.users.UserContext(ctx, job.UserID)
	if err != nil {
		c.recordFailure(ctx, job, fmt.Sprintf("loading user context: %v", err))
		otelhelper.SetError(span, err)

		return err
	}

	// State operations performed by steps are scoped to this job's identity.
	ctx = statestore.WithNamespace(ctx, statestore.Namespace(job.UserID, job.WorkflowID))

	result, err := c.executor.Execute(ctx, workflow, inputs)
	if err != nil {
		c.recordFailure(ctx, job, err.Error())
		otelhelper.SetError(span, err)

		return err
	}

	return c.complete(ctx, job, result, started)
}

func (c *Controller) complete(ctx context.Context, job *models.Job, result *engine.Result, started time.Time) error {
	pending, err := c.persistence.Jobs().PendingResultByJobID(ctx, job.ID)
	if err != nil {
		c.recordFailure(ctx, job, fmt.Sprintf("loading pending result: %v", err))

		return err
	}

	pending.Status = models.JobStatusCompleted
	pending.Result = result.Final

	if err := c.persistence.Jobs().FinalizeJob(ctx, job.ID, models.JobStatusCompleted, pending); err != nil {
		c.recordFailure(ctx, job, fmt.Sprintf("finalizing job: %v", err))

		return err
	}

	c.logger.InfoContext(ctx, "Job completed", "job_id", job.ID, "workflow_id", job.WorkflowID)

	c.publish(ctx, job.ID, events.JobCompleted{
		BaseEvent: events.NewBaseEvent(events.JobCompletedEvent, job.WorkflowID, job.ID),
		Result:    result.Final,
		Duration:  time.Since(started),
	})

	return nil
}

// publish is best effort: a broker outage must not affect job durability.
func (c *Controller) publish(ctx context.Context, key string, event eventbus.Event) {
	if c.publisher == nil {
		return
	}

	if err := c.publisher.Publish(ctx, key, event); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish job event",
			"event_type", event.GetType(), "key", key, "error", err)
	}
}
