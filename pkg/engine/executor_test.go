package engine

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/striderun/stride/pkg/models"
	"github.com/striderun/stride/pkg/sandbox"
	"github.com/striderun/stride/pkg/tools"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

type harness struct {
	executor *Executor
	callLog  *tools.CallLog
	invoker  *tools.TestInvoker
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := testLogger()
	runner := sandbox.NewRunner(sandbox.Config{
		Policy: &sandbox.NetworkPolicy{AllowPrivate: true},
		Logger: logger,
	})

	callLog := tools.NewCallLog()
	invoker := tools.NewTestInvoker(
		tools.NewDispatcher(tools.NewRegistry(logger), logger), callLog)

	return &harness{
		executor: NewExecutor(runner, invoker, logger),
		callLog:  callLog,
		invoker:  invoker,
	}
}

func TestExecuteHelloWorld(t *testing.T) {
	h := newHarness(t)

	workflow := definition(&models.Step{
		ID:   "hello",
		Kind: models.StepKindCode,
		Code: &models.CodeSpec{Source: `function main() { return "Hello, World!"; }`},
	})

	result, err := h.executor.Execute(context.Background(), workflow, nil)
	require.NoError(t, err)

	assert.Equal(t, "Hello, World!", result.Final)
	assert.Equal(t, "hello", result.FinalStep)
	assert.Equal(t, "Hello, World!", result.Outputs["hello"])
}

func TestExecuteScheduledPriceWorkflow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price": 105.2}`))
	}))
	defer server.Close()

	h := newHarness(t)

	workflow := &models.WorkflowDefinition{
		ID:      "wf-price",
		Name:    "price poller",
		OwnerID: "user-1",
		Trigger: models.TriggerSpec{Type: models.TriggerScheduled, Cron: "*/10 * * * *"},
		Steps: []*models.Step{
			{
				ID:   "fetch-price",
				Kind: models.StepKindCode,
				Code: &models.CodeSpec{Source: `
					function main() {
						const response = fetch(context.url);
						return response.json.price;
					}
				`},
			},
		},
	}

	result, err := h.executor.Execute(context.Background(), workflow,
		map[string]any{"url": server.URL})
	require.NoError(t, err)

	price, ok := result.Final.(float64)
	require.True(t, ok, "expected numeric price, got %T", result.Final)
	assert.Greater(t, price, 0.0)
}

func TestExecuteCodeThenToolNotification(t *testing.T) {
	h := newHarness(t)
	h.invoker.SetMode("telegram-bot", tools.ModeTest, nil)

	workflow := definition(
		&models.Step{
			ID:   "price",
			Kind: models.StepKindCode,
			Code: &models.CodeSpec{Source: `function main() { return { price: 105.2 }; }`},
		},
		&models.Step{
			ID:   "notify",
			Kind: models.StepKindTool,
			Tool: &models.ToolSpec{
				Name: "telegram-bot",
				Args: map[string]any{
					"chat_id": "42",
					"message": "BTC is at ${{ steps.price.price }} now",
				},
			},
		},
	)

	result, err := h.executor.Execute(context.Background(), workflow, nil)
	require.NoError(t, err)
	assert.Equal(t, "notify", result.FinalStep)

	calls := h.callLog.CallsFor("telegram-bot")
	require.Len(t, calls, 1)

	message := calls[0].Args["message"].(string)
	assert.Equal(t, "BTC is at 105.2 now", message)
	assert.NotContains(t, message, "undefined")
}

func TestExecuteCycleProducesNoSideEffects(t *testing.T) {
	h := newHarness(t)
	h.invoker.SetMode("telegram-bot", tools.ModeTest, nil)

	workflow := definition(
		toolStep("a", map[string]any{"message": "hi"}, "b"),
		toolStep("b", map[string]any{"message": "hi"}, "a"),
	)

	_, err := h.executor.Execute(context.Background(), workflow, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkflowGraph)
	assert.Empty(t, h.callLog.Calls())
}

func TestExecuteIndependentStepsBothRun(t *testing.T) {
	h := newHarness(t)

	workflow := definition(
		codeStep("left"),
		codeStep("right"),
		&models.Step{
			ID:        "join",
			Kind:      models.StepKindCode,
			Code:      &models.CodeSpec{Source: `function main() { return context.steps.left + context.steps.right; }`},
			DependsOn: []string{"left", "right"},
		},
	)

	result, err := h.executor.Execute(context.Background(), workflow, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Final)
	assert.Len(t, result.Outputs, 3)
}

func TestExecuteStepFailureAbortsRun(t *testing.T) {
	h := newHarness(t)
	h.invoker.SetMode("telegram-bot", tools.ModeTest, nil)

	workflow := definition(
		&models.Step{
			ID:   "boom",
			Kind: models.StepKindCode,
			Code: &models.CodeSpec{Source: `function main() { throw new Error("boom"); }`},
		},
		toolStep("notify", map[string]any{"message": "${{ steps.boom }}"}),
	)

	_, err := h.executor.Execute(context.Background(), workflow, nil)
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "boom", stepErr.StepID)
	assert.True(t, sandbox.IsRuntimeError(err))
	assert.Empty(t, h.callLog.Calls())
}

func TestExecuteAggregateResultTemplate(t *testing.T) {
	h := newHarness(t)

	workflow := definition(
		&models.Step{
			ID:   "price",
			Kind: models.StepKindCode,
			Code: &models.CodeSpec{Source: `function main() { return { price: 105.2 }; }`},
		},
	)
	workflow.Result = map[string]any{
		"summary": "price was ${{ steps.price.price }}",
		"raw":     "${{ steps.price }}",
	}

	result, err := h.executor.Execute(context.Background(), workflow, nil)
	require.NoError(t, err)

	final := result.Final.(map[string]any)
	assert.Equal(t, "price was 105.2", final["summary"])
	assert.Empty(t, result.FinalStep)
}

func TestExecuteInvalidDefinitionRejected(t *testing.T) {
	h := newHarness(t)

	workflow := definition() // no steps

	_, err := h.executor.Execute(context.Background(), workflow, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNoSteps)
}
