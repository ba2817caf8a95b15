package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/striderun/stride/pkg/channels/gochannel"
	"github.com/striderun/stride/pkg/channels/kafka"
	"github.com/striderun/stride/pkg/eventbus"
	"github.com/striderun/stride/pkg/events"
)

// NewEventBus creates an event bus instance based on the provider.
func NewEventBus(provider, serviceName string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create GoChannel pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}

// SubscribeJobAuditLog registers a consumer that writes every job lifecycle
// event to the service log and starts consuming. Every deployment gets an
// audit trail of the stream even before external consumers attach.
func SubscribeJobAuditLog(ctx context.Context, bus eventbus.EventBus, logger *slog.Logger) error {
	logger = logger.With("module", "job_audit")

	_ = bus.Handle(events.JobCreatedEvent, func(ctx context.Context, event any) error {
		if e, ok := event.(*events.JobCreated); ok {
			logger.InfoContext(ctx, "Job created",
				"job_id", e.JobID, "workflow_id", e.WorkflowID, "user_id", e.UserID)
		}

		return nil
	})

	_ = bus.Handle(events.JobCompletedEvent, func(ctx context.Context, event any) error {
		if e, ok := event.(*events.JobCompleted); ok {
			logger.InfoContext(ctx, "Job completed",
				"job_id", e.JobID, "workflow_id", e.WorkflowID, "duration", e.Duration)
		}

		return nil
	})

	_ = bus.Handle(events.JobFailedEvent, func(ctx context.Context, event any) error {
		if e, ok := event.(*events.JobFailed); ok {
			logger.WarnContext(ctx, "Job failed",
				"job_id", e.JobID, "workflow_id", e.WorkflowID, "reason", e.FailureReason)
		}

		return nil
	})

	return bus.Subscribe(ctx)
}
