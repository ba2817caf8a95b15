package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/striderun/stride/pkg/models"
)

func codeStep(id string, deps ...string) *models.Step {
	return &models.Step{
		ID:        id,
		Kind:      models.StepKindCode,
		Code:      &models.CodeSpec{Source: "function main() { return 1; }"},
		DependsOn: deps,
	}
}

func toolStep(id string, args map[string]any, deps ...string) *models.Step {
	return &models.Step{
		ID:        id,
		Kind:      models.StepKindTool,
		Tool:      &models.ToolSpec{Name: "log", Args: args},
		DependsOn: deps,
	}
}

func definition(steps ...*models.Step) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:      "wf-1",
		Name:    "test workflow",
		OwnerID: "user-1",
		Trigger: models.TriggerSpec{Type: models.TriggerImmediate},
		Steps:   steps,
	}
}

func TestBuildGraphDiamond(t *testing.T) {
	graph, err := BuildGraph(definition(
		codeStep("a"),
		codeStep("b", "a"),
		codeStep("c", "a"),
		codeStep("d", "b", "c"),
	))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a"}, {"b", "c"}, {"d"}}, graph.Levels())
	assert.Equal(t, "d", graph.Terminal())
}

func TestBuildGraphReferenceImpliedEdge(t *testing.T) {
	graph, err := BuildGraph(definition(
		codeStep("price-check"),
		toolStep("notify", map[string]any{
			"message": `price is ${{ steps["price-check"].price }}`,
		}),
	))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"price-check"}, {"notify"}}, graph.Levels())
	assert.Equal(t, []string{"price-check"}, graph.Dependencies("notify"))
	assert.Equal(t, "notify", graph.Terminal())
}

func TestBuildGraphUnknownReference(t *testing.T) {
	_, err := BuildGraph(definition(
		toolStep("notify", map[string]any{"message": "${{ steps.missing.value }}"}),
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkflowGraph)
	assert.Contains(t, err.Error(), "missing")
}

func TestBuildGraphCycle(t *testing.T) {
	_, err := BuildGraph(definition(
		codeStep("a", "b"),
		codeStep("b", "a"),
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkflowGraph)
	assert.Contains(t, err.Error(), "cycle")
}

func TestBuildGraphSelfReference(t *testing.T) {
	_, err := BuildGraph(definition(codeStep("a", "a")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkflowGraph)
}

func TestBuildGraphMalformedReference(t *testing.T) {
	_, err := BuildGraph(definition(
		toolStep("notify", map[string]any{"message": "${{ steps. }}"}),
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkflowGraph)
}

func TestBuildGraphTerminalIsLastDeclaredSink(t *testing.T) {
	graph, err := BuildGraph(definition(
		codeStep("a"),
		codeStep("first-sink", "a"),
		codeStep("second-sink", "a"),
	))
	require.NoError(t, err)

	assert.Equal(t, "second-sink", graph.Terminal())
}
