package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		trigger TriggerSpec
		wantErr bool
	}{
		{
			name:    "immediate trigger",
			trigger: TriggerSpec{Type: TriggerImmediate},
		},
		{
			name:    "immediate trigger with cron",
			trigger: TriggerSpec{Type: TriggerImmediate, Cron: "* * * * *"},
			wantErr: true,
		},
		{
			name:    "scheduled trigger every ten minutes",
			trigger: TriggerSpec{Type: TriggerScheduled, Cron: "*/10 * * * *"},
		},
		{
			name:    "scheduled trigger daily",
			trigger: TriggerSpec{Type: TriggerScheduled, Cron: "0 9 * * *"},
		},
		{
			name:    "scheduled trigger without cron",
			trigger: TriggerSpec{Type: TriggerScheduled},
			wantErr: true,
		},
		{
			name:    "scheduled trigger with bad cron",
			trigger: TriggerSpec{Type: TriggerScheduled, Cron: "not a cron"},
			wantErr: true,
		},
		{
			name:    "unknown trigger type",
			trigger: TriggerSpec{Type: "webhook"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trigger.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStepValidate(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		wantErr error
	}{
		{
			name: "valid code step",
			step: Step{
				ID:   "fetch",
				Kind: StepKindCode,
				Code: &CodeSpec{Source: "function main() { return 'ok' }"},
			},
		},
		{
			name: "valid tool step",
			step: Step{
				ID:   "notify",
				Kind: StepKindTool,
				Tool: &ToolSpec{Name: "telegram-bot"},
			},
		},
		{
			name:    "code step without spec",
			step:    Step{ID: "fetch", Kind: StepKindCode},
			wantErr: ErrStepSpecMissing,
		},
		{
			name: "code step with tool spec attached",
			step: Step{
				ID:   "fetch",
				Kind: StepKindCode,
				Code: &CodeSpec{Source: "1"},
				Tool: &ToolSpec{Name: "log"},
			},
			wantErr: ErrStepSpecExtra,
		},
		{
			name:    "tool step without spec",
			step:    Step{ID: "notify", Kind: StepKindTool},
			wantErr: ErrStepSpecMissing,
		},
		{
			name:    "unknown kind",
			step:    Step{ID: "x", Kind: "timer"},
			wantErr: ErrUnknownStepKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWorkflowDefinitionValidate(t *testing.T) {
	valid := func() *WorkflowDefinition {
		return &WorkflowDefinition{
			ID:      "wf-1",
			Name:    "Price watch",
			OwnerID: "user-1",
			Trigger: TriggerSpec{Type: TriggerImmediate},
			Steps: []*Step{
				{ID: "price", Kind: StepKindCode, Code: &CodeSpec{Source: "function main() { return 1 }"}},
				{ID: "notify", Kind: StepKindTool, Tool: &ToolSpec{Name: "log"}, DependsOn: []string{"price"}},
			},
		}
	}

	t.Run("valid workflow", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("no steps", func(t *testing.T) {
		w := valid()
		w.Steps = nil
		assert.ErrorIs(t, w.Validate(), ErrNoSteps)
	})

	t.Run("duplicate step ids", func(t *testing.T) {
		w := valid()
		w.Steps[1].ID = "price"
		w.Steps[1].DependsOn = nil
		assert.ErrorIs(t, w.Validate(), ErrDuplicateStepID)
	})

	t.Run("dependency on unknown step", func(t *testing.T) {
		w := valid()
		w.Steps[1].DependsOn = []string{"missing"}
		assert.ErrorIs(t, w.Validate(), ErrUnknownStepRef)
	})

	t.Run("invalid trigger", func(t *testing.T) {
		w := valid()
		w.Trigger = TriggerSpec{Type: TriggerScheduled, Cron: "bogus"}
		assert.Error(t, w.Validate())
	})
}

func TestJobLifecycleHelpers(t *testing.T) {
	job := NewJob("wf-1", "user-1")

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.False(t, job.Status.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())

	pending := NewPendingResult(job.ID)
	assert.Equal(t, job.ID, pending.JobID)
	assert.Equal(t, JobStatusPending, pending.Status)

	failed := NewFailedResult(job.ID, "sandbox: runtime error")
	assert.Equal(t, JobStatusFailed, failed.Status)
	assert.Equal(t, "sandbox: runtime error", failed.FailureReason)
}
