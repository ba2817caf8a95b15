// Package events defines event types for job lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every job lifecycle event.
const Topic = "stride.jobs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	JobCreatedEvent   EventType = "job.created"
	JobCompletedEvent EventType = "job.completed"
	JobFailedEvent    EventType = "job.failed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	JobID      string         `json:"job_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID, jobID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		JobID:      jobID,
	}
}

type JobCreated struct {
	BaseEvent

	UserID string `json:"user_id"`
}

func (j JobCreated) GetType() EventType {
	return JobCreatedEvent
}

type JobCompleted struct {
	BaseEvent

	Result   any           `json:"result,omitempty"`
	Duration time.Duration `json:"duration"`
}

func (j JobCompleted) GetType() EventType {
	return JobCompletedEvent
}

// JobFailed is the durable failure notification surface: it carries the
// recorded failure reason so downstream consumers can alert on it.
type JobFailed struct {
	BaseEvent

	FailureReason string        `json:"failure_reason"`
	Duration      time.Duration `json:"duration"`
}

func (j JobFailed) GetType() EventType {
	return JobFailedEvent
}
