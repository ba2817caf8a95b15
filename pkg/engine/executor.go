// Package engine orders workflow steps by their reference graph and executes
// them, dispatching code steps to the sandbox and tool steps to the tool
// invoker. Graph validation is complete before the first step runs, so an
// invalid workflow produces no side effects.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/striderun/stride/pkg/models"
	"github.com/striderun/stride/pkg/template"
	"github.com/striderun/stride/pkg/tools"
)

// CodeRunner executes one sandboxed snippet. Satisfied by *sandbox.Runner.
type CodeRunner interface {
	Run(ctx context.Context, source, entryPoint string, globals map[string]any) (any, error)
}

// Result is the outcome of one successful workflow execution.
type Result struct {
	// Outputs holds every step's produced value, keyed by step id.
	Outputs map[string]any
	// Final is the workflow's overall result: the aggregate template when the
	// definition declares one, otherwise the terminal step's output.
	Final any
	// FinalStep is the terminal step id, empty when an aggregate template
	// produced Final.
	FinalStep string
}

// Executor runs workflow definitions to completion.
type Executor struct {
	runner  CodeRunner
	invoker tools.Invoker
	logger  *slog.Logger
}

func NewExecutor(runner CodeRunner, invoker tools.Invoker, logger *slog.Logger) *Executor {
	return &Executor{
		runner:  runner,
		invoker: invoker,
		logger:  logger.With("module", "engine"),
	}
}

// Execute validates the definition, builds the graph and runs every step
// level by level. Steps in the same level run concurrently. The first step
// failure aborts the run and is returned as a StepError.
func (e *Executor) Execute(ctx context.Context, workflow *models.WorkflowDefinition, inputs map[string]any) (*Result, error) {
	if err := workflow.Validate(); err != nil {
		return nil, err
	}

	graph, err := BuildGraph(workflow)
	if err != nil {
		return nil, err
	}

	execCtx := NewExecutionContext(inputs, map[string]any{
		"id":       workflow.ID,
		"name":     workflow.Name,
		"owner_id": workflow.OwnerID,
	})

	e.logger.InfoContext(ctx, "Executing workflow",
		"workflow_id", workflow.ID, "steps", len(workflow.Steps), "levels", len(graph.Levels()))

	for _, level := range graph.Levels() {
		group, groupCtx := errgroup.WithContext(ctx)

		for _, stepID := range level {
			step, _ := workflow.Step(stepID)

			group.Go(func() error {
				value, err := e.runStep(groupCtx, step, execCtx)
				if err != nil {
					return &StepError{StepID: step.ID, Err: err}
				}

				execCtx.SetOutput(step.ID, value)

				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return nil, err
		}
	}

	return e.finish(workflow, graph, execCtx)
}

func (e *Executor) runStep(ctx context.Context, step *models.Step, execCtx *ExecutionContext) (any, error) {
	e.logger.DebugContext(ctx, "Running step", "step_id", step.ID, "kind", step.Kind)

	switch step.Kind {
	case models.StepKindCode:
		return e.runner.Run(ctx, step.Code.Source, step.Code.Entry(), execCtx.Globals())
	case models.StepKindTool:
		args, err := template.ResolveArgs(step.Tool.Args, execCtx.Scope())
		if err != nil {
			return nil, fmt.Errorf("resolving arguments: %w", err)
		}

		return e.invoker.Invoke(ctx, step.Tool.Name, args)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownStepKind, step.Kind)
	}
}

// finish selects the workflow's overall result once every step succeeded.
func (e *Executor) finish(workflow *models.WorkflowDefinition, graph *Graph, execCtx *ExecutionContext) (*Result, error) {
	outputs := execCtx.Outputs()

	if len(workflow.Result) > 0 {
		final, err := template.Resolve(workflow.Result, execCtx.Scope())
		if err != nil {
			return nil, fmt.Errorf("resolving workflow result: %w", err)
		}

		return &Result{Outputs: outputs, Final: final}, nil
	}

	terminal := graph.Terminal()

	return &Result{
		Outputs:   outputs,
		Final:     outputs[terminal],
		FinalStep: terminal,
	}, nil
}
