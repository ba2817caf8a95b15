package engine

import (
	"sync"

	"github.com/striderun/stride/pkg/template"
)

// ExecutionContext accumulates step outputs during one run. Steps inside one
// level write concurrently, so access is guarded.
type ExecutionContext struct {
	mu       sync.RWMutex
	inputs   map[string]any
	workflow map[string]any
	outputs  map[string]any
}

func NewExecutionContext(inputs, workflow map[string]any) *ExecutionContext {
	if inputs == nil {
		inputs = map[string]any{}
	}

	if workflow == nil {
		workflow = map[string]any{}
	}

	return &ExecutionContext{
		inputs:   inputs,
		workflow: workflow,
		outputs:  make(map[string]any),
	}
}

func (c *ExecutionContext) SetOutput(stepID string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.outputs[stepID] = value
}

func (c *ExecutionContext) Output(stepID string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.outputs[stepID]

	return value, ok
}

// Outputs returns a copy of all outputs recorded so far.
func (c *ExecutionContext) Outputs() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]any, len(c.outputs))
	for id, value := range c.outputs {
		out[id] = value
	}

	return out
}

// Scope snapshots the context for template resolution.
func (c *ExecutionContext) Scope() *template.Scope {
	return &template.Scope{
		Steps:    c.Outputs(),
		Inputs:   c.inputs,
		Workflow: c.workflow,
	}
}

// Globals snapshots the context for the sandbox: initial values at the top
// level plus prior step outputs under "steps".
func (c *ExecutionContext) Globals() map[string]any {
	globals := make(map[string]any, len(c.inputs)+1)
	for key, value := range c.inputs {
		globals[key] = value
	}

	globals["steps"] = c.Outputs()

	return globals
}
