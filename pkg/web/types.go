package web

import (
	"github.com/striderun/stride/pkg/models"
)

// CreateWorkflowRequest is the wire shape for registering a workflow
// definition.
type CreateWorkflowRequest struct {
	ID          string             `json:"id"          validate:"required"`
	Name        string             `json:"name"        validate:"required,min=3"`
	Description string             `json:"description"`
	OwnerID     string             `json:"owner_id"    validate:"required"`
	Trigger     models.TriggerSpec `json:"trigger"`
	Steps       []*models.Step     `json:"steps"       validate:"required,min=1"`
	Result      map[string]any     `json:"result,omitempty"`
}

func (r *CreateWorkflowRequest) toModel() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		OwnerID:     r.OwnerID,
		Trigger:     r.Trigger,
		Steps:       r.Steps,
		Result:      r.Result,
	}
}

// CreateJobRequest asks for a new job of a workflow on behalf of a user.
type CreateJobRequest struct {
	UserID string `json:"user_id" validate:"required"`
}
