package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/striderun/stride/pkg/engine"
	"github.com/striderun/stride/pkg/jobs"
	"github.com/striderun/stride/pkg/persistence/memory"
	"github.com/striderun/stride/pkg/sandbox"
	"github.com/striderun/stride/pkg/tools"
	"github.com/striderun/stride/pkg/usercontext"
	"github.com/striderun/stride/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, *memory.Persistence) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store := memory.NewPersistence()

	runner := sandbox.NewRunner(sandbox.Config{Logger: logger})
	invoker := tools.NewTestInvoker(
		tools.NewDispatcher(tools.NewRegistry(logger), logger), tools.NewCallLog())
	executor := engine.NewExecutor(runner, invoker, logger)

	controller := jobs.NewController(jobs.Config{
		Persistence: store,
		Executor:    executor,
		Users:       usercontext.NewStaticProvider(),
		Logger:      logger,
	})

	handlers := web.NewAPIHandlers(store, controller,
		validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/jobs", handlers.CreateJob)

	j := app.Group("/jobs")
	j.Post("/:id/run", handlers.RunJob)
	j.Get("/:id", handlers.GetJob)
	j.Get("/:id/results", handlers.GetJobResults)

	app.Get("/health", handlers.HealthCheck)

	return app, store
}

func validWorkflowBody() map[string]any {
	return map[string]any{
		"id":       "wf-1",
		"name":     "price poller",
		"owner_id": "user-1",
		"trigger":  map[string]any{"type": "immediate"},
		"steps": []map[string]any{
			{
				"id":   "hello",
				"kind": "code",
				"code": map[string]any{"source": `function main() { return "Hello, World!"; }`},
			},
		},
	}
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))

	return out
}

func TestCreateWorkflow(t *testing.T) {
	app, store := setupTestApp(t)

	resp := postJSON(t, app, "/workflows/", validWorkflowBody())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	saved, err := store.Workflows().WorkflowByID(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "price poller", saved.Name)
}

func TestCreateWorkflowSchemaViolations(t *testing.T) {
	app, _ := setupTestApp(t)

	tests := []struct {
		name   string
		mutate func(body map[string]any)
	}{
		{
			name:   "missing steps",
			mutate: func(body map[string]any) { delete(body, "steps") },
		},
		{
			name:   "unknown step kind",
			mutate: func(body map[string]any) { body["steps"].([]map[string]any)[0]["kind"] = "magic" },
		},
		{
			name:   "unknown trigger type",
			mutate: func(body map[string]any) { body["trigger"] = map[string]any{"type": "webhook"} },
		},
		{
			name:   "short name",
			mutate: func(body map[string]any) { body["name"] = "ab" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validWorkflowBody()
			tt.mutate(body)

			resp := postJSON(t, app, "/workflows/", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreateWorkflowRejectsCycle(t *testing.T) {
	app, _ := setupTestApp(t)

	body := validWorkflowBody()
	body["steps"] = []map[string]any{
		{
			"id":         "a",
			"kind":       "code",
			"code":       map[string]any{"source": "function main() { return 1; }"},
			"depends_on": []string{"b"},
		},
		{
			"id":         "b",
			"kind":       "code",
			"code":       map[string]any{"source": "function main() { return 1; }"},
			"depends_on": []string{"a"},
		},
	}

	resp := postJSON(t, app, "/workflows/", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Contains(t, payload["detail"], "cycle")
}

func TestGetWorkflowNotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/workflows/nope", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := postJSON(t, app, "/workflows/", validWorkflowBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/workflows/wf-1/jobs", web.CreateJobRequest{UserID: "user-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	jobID := decodeBody(t, resp)["id"].(string)
	require.NotEmpty(t, jobID)

	resp = postJSON(t, app, "/jobs/"+jobID+"/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", decodeBody(t, resp)["status"])

	// Running a finished job is a conflict
	resp = postJSON(t, app, "/jobs/"+jobID+"/run", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+jobID+"/results", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	results := payload["results"].([]any)
	require.Len(t, results, 1)

	result := results[0].(map[string]any)
	assert.Equal(t, "completed", result["status"])
	assert.Equal(t, "Hello, World!", result["result"])
}

func TestHealthCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "healthy", payload["status"])
}
