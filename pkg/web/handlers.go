// Package web provides HTTP handlers and REST API endpoints for workflow and
// job management.
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/striderun/stride/pkg/engine"
	"github.com/striderun/stride/pkg/jobs"
	"github.com/striderun/stride/pkg/persistence"
)

type APIHandlers struct {
	persistence persistence.Persistence
	controller  *jobs.Controller
	validator   *validator.Validate
}

func NewAPIHandlers(
	persistence persistence.Persistence,
	controller *jobs.Controller,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		persistence: persistence,
		controller:  controller,
		validator:   validator,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.persistence.Workflows().Workflows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.persistence.Workflows().WorkflowByID(c.Context(), id)
	if err != nil {
		return handleDomainError(c, err)
	}

	return c.JSON(workflow)
}

// CreateWorkflow registers a definition. The body passes schema validation,
// struct validation, model validation and graph construction before anything
// is stored, so a stored workflow is always executable.
func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	body := c.Body()

	if err := validateDefinitionJSON(body); err != nil {
		return badRequest(c, err.Error())
	}

	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := req.toModel()

	if err := workflow.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if _, err := engine.BuildGraph(workflow); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.Workflows().SaveWorkflow(c.Context(), workflow); err != nil {
		return handleDomainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.persistence.Workflows().DeleteWorkflow(c.Context(), id); err != nil {
		return handleDomainError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// CreateJob creates a pending job for a workflow.
func (h *APIHandlers) CreateJob(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req CreateJobRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	job, err := h.controller.CreateJob(c.Context(), workflowID, req.UserID)
	if err != nil {
		return handleDomainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(job)
}

// RunJob executes a pending job to a terminal status and returns the job's
// final state. Execution failures are recorded on the job, so the response is
// the job itself either way.
func (h *APIHandlers) RunJob(c fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return badRequest(c, "Job ID is required")
	}

	runErr := h.controller.Run(c.Context(), jobID)
	if runErr != nil && (persistence.IsJobNotFound(runErr) || errors.Is(runErr, jobs.ErrJobNotRunnable)) {
		// Run failed before execution even started; report the error instead
		// of the job.
		return handleDomainError(c, runErr)
	}

	job, err := h.persistence.Jobs().JobByID(c.Context(), jobID)
	if err != nil {
		return handleDomainError(c, err)
	}

	return c.JSON(job)
}

func (h *APIHandlers) GetJob(c fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return badRequest(c, "Job ID is required")
	}

	job, err := h.persistence.Jobs().JobByID(c.Context(), jobID)
	if err != nil {
		return handleDomainError(c, err)
	}

	return c.JSON(job)
}

func (h *APIHandlers) GetJobResults(c fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return badRequest(c, "Job ID is required")
	}

	if _, err := h.persistence.Jobs().JobByID(c.Context(), jobID); err != nil {
		return handleDomainError(c, err)
	}

	results, err := h.persistence.Jobs().JobResultsByJobID(c.Context(), jobID)
	if err != nil {
		return handleDomainError(c, err)
	}

	return c.JSON(fiber.Map{
		"results":     results,
		"total_count": len(results),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	err := h.persistence.HealthCheck(c.Context())

	status := "healthy"
	message := "Stride API is healthy"
	httpStatus := http.StatusOK

	if err != nil {
		status = "unhealthy"
		message = "Stride API is unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}
