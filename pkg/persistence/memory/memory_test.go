package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/striderun/stride/pkg/models"
	"github.com/striderun/stride/pkg/persistence"
	"github.com/striderun/stride/pkg/persistence/memory"
)

func testWorkflow(id string) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:      id,
		Name:    "test workflow",
		OwnerID: "user-1",
		Trigger: models.TriggerSpec{Type: models.TriggerImmediate},
		Steps: []*models.Step{
			{
				ID:   "hello",
				Kind: models.StepKindCode,
				Code: &models.CodeSpec{Source: "function main() { return 1; }"},
			},
		},
	}
}

func TestWorkflowRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := memory.NewPersistence()

	require.NoError(t, p.Workflows().SaveWorkflow(ctx, testWorkflow("wf-1")))

	loaded, err := p.Workflows().WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "test workflow", loaded.Name)
	assert.False(t, loaded.CreatedAt.IsZero())

	all, err := p.Workflows().Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, p.Workflows().DeleteWorkflow(ctx, "wf-1"))

	_, err = p.Workflows().WorkflowByID(ctx, "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestCreateJobStoresJobAndPendingResult(t *testing.T) {
	ctx := context.Background()
	p := memory.NewPersistence()

	job := models.NewJob("wf-1", "user-1")
	result := models.NewPendingResult(job.ID)

	require.NoError(t, p.Jobs().CreateJob(ctx, job, result))

	loaded, err := p.Jobs().JobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, loaded.Status)

	pending, err := p.Jobs().PendingResultByJobID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, pending.ID)
}

func TestFinalizeJob(t *testing.T) {
	ctx := context.Background()
	p := memory.NewPersistence()

	job := models.NewJob("wf-1", "user-1")
	result := models.NewPendingResult(job.ID)
	require.NoError(t, p.Jobs().CreateJob(ctx, job, result))

	result.Status = models.JobStatusCompleted
	result.Result = map[string]any{"price": 105.2}
	require.NoError(t, p.Jobs().FinalizeJob(ctx, job.ID, models.JobStatusCompleted, result))

	loaded, err := p.Jobs().JobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, loaded.Status)
	require.NotNil(t, loaded.FinishedAt)

	results, err := p.Jobs().JobResultsByJobID(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.JobStatusCompleted, results[0].Status)

	// No pending result remains after the terminal write.
	_, err = p.Jobs().PendingResultByJobID(ctx, job.ID)
	assert.True(t, persistence.IsJobResultNotFound(err))
}

func TestFinalizeJobTwiceRejected(t *testing.T) {
	ctx := context.Background()
	p := memory.NewPersistence()

	job := models.NewJob("wf-1", "user-1")
	result := models.NewPendingResult(job.ID)
	require.NoError(t, p.Jobs().CreateJob(ctx, job, result))

	result.Status = models.JobStatusCompleted
	require.NoError(t, p.Jobs().FinalizeJob(ctx, job.ID, models.JobStatusCompleted, result))

	result.Status = models.JobStatusFailed
	err := p.Jobs().FinalizeJob(ctx, job.ID, models.JobStatusFailed, result)
	assert.True(t, persistence.IsJobAlreadyTerminal(err))
}

func TestJobNotFound(t *testing.T) {
	ctx := context.Background()
	p := memory.NewPersistence()

	_, err := p.Jobs().JobByID(ctx, "nope")
	assert.True(t, persistence.IsJobNotFound(err))

	err = p.Jobs().FinalizeJob(ctx, "nope", models.JobStatusCompleted, models.NewPendingResult("nope"))
	assert.True(t, persistence.IsJobNotFound(err))
}
