// Package models defines the core domain models for durable workflow execution.
package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoSteps         = errors.New("workflow has no steps")
	ErrDuplicateStepID = errors.New("duplicate step id")
	ErrUnknownStepRef  = errors.New("step depends on unknown step")
)

// WorkflowDefinition is a trigger plus an ordered sequence of steps whose
// references form a DAG. Definitions are parsed and schema-validated by the
// document layer before the execution core sees them; once parsed they are
// treated as immutable.
type WorkflowDefinition struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description,omitempty"`
	OwnerID     string         `json:"owner_id"    validate:"required"`
	Trigger     TriggerSpec    `json:"trigger"`
	Steps       []*Step        `json:"steps"`
	Result      map[string]any `json:"result,omitempty"` // optional aggregate template
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Validate checks structural rules: a valid trigger, at least one step, unique
// step ids, per-step variant consistency and explicit dependencies pointing at
// known steps. Cycle detection over the full reference graph happens in the
// engine before execution.
func (w *WorkflowDefinition) Validate() error {
	if err := w.Trigger.Validate(); err != nil {
		return fmt.Errorf("workflow %s: %w", w.ID, err)
	}

	if len(w.Steps) == 0 {
		return fmt.Errorf("workflow %s: %w", w.ID, ErrNoSteps)
	}

	seen := make(map[string]bool, len(w.Steps))

	for _, step := range w.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("workflow %s: %w", w.ID, err)
		}

		if seen[step.ID] {
			return fmt.Errorf("workflow %s: %w: %s", w.ID, ErrDuplicateStepID, step.ID)
		}

		seen[step.ID] = true
	}

	for _, step := range w.Steps {
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("workflow %s: step %s: %w: %s", w.ID, step.ID, ErrUnknownStepRef, dep)
			}
		}
	}

	return nil
}

// Step returns the step with the given id, if present.
func (w *WorkflowDefinition) Step(id string) (*Step, bool) {
	for _, step := range w.Steps {
		if step.ID == id {
			return step, true
		}
	}

	return nil, false
}
