package engine

import (
	"fmt"
	"strings"

	"github.com/striderun/stride/pkg/models"
	"github.com/striderun/stride/pkg/template"
)

// Graph is the dependency graph of a workflow: explicit depends_on edges plus
// the producer/consumer edges implied by argument references. Built and
// validated in full before any step executes.
type Graph struct {
	levels   [][]string
	terminal string
	deps     map[string][]string
}

// BuildGraph extracts every edge, rejects unknown references and cycles, and
// computes the parallel execution levels. Steps inside one level have no
// dependencies on each other and may run concurrently.
func BuildGraph(workflow *models.WorkflowDefinition) (*Graph, error) {
	known := make(map[string]bool, len(workflow.Steps))
	for _, step := range workflow.Steps {
		known[step.ID] = true
	}

	deps := make(map[string][]string, len(workflow.Steps))

	for _, step := range workflow.Steps {
		edges := make(map[string]bool, len(step.DependsOn))
		for _, dep := range step.DependsOn {
			edges[dep] = true
		}

		if step.Kind == models.StepKindTool {
			refs, err := template.References(step.Tool.Args)
			if err != nil {
				return nil, fmt.Errorf("%w: step %s: %v", ErrInvalidWorkflowGraph, step.ID, err)
			}

			for _, ref := range refs {
				edges[ref] = true
			}
		}

		list := make([]string, 0, len(edges))

		for dep := range edges {
			if !known[dep] {
				return nil, fmt.Errorf("%w: step %s references unknown step %q",
					ErrInvalidWorkflowGraph, step.ID, dep)
			}

			if dep == step.ID {
				return nil, fmt.Errorf("%w: step %s references itself",
					ErrInvalidWorkflowGraph, step.ID)
			}

			list = append(list, dep)
		}

		deps[step.ID] = list
	}

	levels, err := topoLevels(workflow, deps)
	if err != nil {
		return nil, err
	}

	return &Graph{
		levels:   levels,
		terminal: terminalStep(workflow, deps),
		deps:     deps,
	}, nil
}

// Levels returns the execution order as groups of mutually independent steps.
func (g *Graph) Levels() [][]string { return g.levels }

// Terminal returns the id of the step whose output is the workflow's result
// when no aggregate result template is declared. Among steps no other step
// consumes, the last declared one wins.
func (g *Graph) Terminal() string { return g.terminal }

// Dependencies returns the full dependency list of one step, explicit and
// reference-implied.
func (g *Graph) Dependencies(stepID string) []string { return g.deps[stepID] }

// topoLevels is Kahn's algorithm grouped by depth. Declaration order breaks
// ties so the schedule is deterministic.
func topoLevels(workflow *models.WorkflowDefinition, deps map[string][]string) ([][]string, error) {
	indegree := make(map[string]int, len(workflow.Steps))
	consumers := make(map[string][]string, len(workflow.Steps))

	for _, step := range workflow.Steps {
		indegree[step.ID] = len(deps[step.ID])

		for _, dep := range deps[step.ID] {
			consumers[dep] = append(consumers[dep], step.ID)
		}
	}

	var current []string

	for _, step := range workflow.Steps {
		if indegree[step.ID] == 0 {
			current = append(current, step.ID)
		}
	}

	var levels [][]string

	processed := 0

	for len(current) > 0 {
		levels = append(levels, current)
		processed += len(current)

		ready := make(map[string]bool)

		for _, id := range current {
			for _, consumer := range consumers[id] {
				indegree[consumer]--
				if indegree[consumer] == 0 {
					ready[consumer] = true
				}
			}
		}

		current = nil

		for _, step := range workflow.Steps {
			if ready[step.ID] {
				current = append(current, step.ID)
			}
		}
	}

	if processed != len(workflow.Steps) {
		var stuck []string

		for _, step := range workflow.Steps {
			if indegree[step.ID] > 0 {
				stuck = append(stuck, step.ID)
			}
		}

		return nil, fmt.Errorf("%w: dependency cycle involving %s",
			ErrInvalidWorkflowGraph, strings.Join(stuck, ", "))
	}

	return levels, nil
}

func terminalStep(workflow *models.WorkflowDefinition, deps map[string][]string) string {
	consumed := make(map[string]bool, len(workflow.Steps))

	for _, list := range deps {
		for _, dep := range list {
			consumed[dep] = true
		}
	}

	terminal := workflow.Steps[len(workflow.Steps)-1].ID

	for _, step := range workflow.Steps {
		if !consumed[step.ID] {
			terminal = step.ID
		}
	}

	return terminal
}
