package models

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// TriggerType identifies how a workflow gets a new job created for it.
type TriggerType string

const (
	// TriggerImmediate runs the workflow once, on demand.
	TriggerImmediate TriggerType = "immediate"
	// TriggerScheduled runs the workflow on a cron schedule.
	TriggerScheduled TriggerType = "schedule"
)

var (
	ErrUnknownTriggerType = errors.New("unknown trigger type")
	ErrCronRequired       = errors.New("schedule trigger requires a cron expression")
	ErrCronNotAllowed     = errors.New("immediate trigger must not carry a cron expression")
)

// TriggerSpec describes the condition that creates a new job for a workflow.
// A scheduled trigger's cron expression is validated here, before any job is
// ever created from it.
type TriggerSpec struct {
	Type TriggerType `json:"type" validate:"required"`
	Cron string      `json:"cron,omitempty"`
}

func (t *TriggerSpec) Validate() error {
	switch t.Type {
	case TriggerImmediate:
		if t.Cron != "" {
			return ErrCronNotAllowed
		}

		return nil
	case TriggerScheduled:
		if t.Cron == "" {
			return ErrCronRequired
		}

		if _, err := cron.ParseStandard(t.Cron); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", t.Cron, err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTriggerType, t.Type)
	}
}

// Scheduled reports whether the trigger creates jobs on a cron schedule.
func (t *TriggerSpec) Scheduled() bool {
	return t.Type == TriggerScheduled
}
