package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidWorkflowGraph indicates the step reference graph cannot be
// executed: a cycle, or a reference to a step that does not exist. Detected
// before any step runs.
var ErrInvalidWorkflowGraph = errors.New("invalid workflow graph")

// StepError wraps a failure from one step, preserving the step id and the
// underlying cause so callers can classify it (compile, runtime, tool,
// policy).
type StepError struct {
	StepID string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.StepID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// IsStepError checks if an error came from a step execution.
func IsStepError(err error) bool {
	var target *StepError

	return errors.As(err, &target)
}
