// Package scheduler creates and runs jobs for workflows with a schedule
// trigger. One cron entry exists per scheduled workflow; a tick creates a
// fresh pending job and drives it to a terminal status.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/striderun/stride/pkg/jobs"
	"github.com/striderun/stride/pkg/persistence"
)

type Scheduler struct {
	persistence persistence.Persistence
	controller  *jobs.Controller
	logger      *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID // workflow id -> cron entry
}

func NewScheduler(store persistence.Persistence, controller *jobs.Controller, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		persistence: store,
		controller:  controller,
		logger:      logger.With("module", "scheduler"),
		entries:     make(map[string]cron.EntryID),
	}
}

// Start loads every scheduled workflow and registers its cron entry. Ticks
// skip when the previous run of the same workflow is still going.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	workflows, err := s.persistence.Workflows().Workflows(ctx)
	if err != nil {
		return fmt.Errorf("failed to load workflows: %w", err)
	}

	for _, workflow := range workflows {
		if !workflow.Trigger.Scheduled() {
			continue
		}

		workflowID := workflow.ID
		ownerID := workflow.OwnerID

		entryID, err := s.cron.AddFunc(workflow.Trigger.Cron, func() {
			s.tick(workflowID, ownerID)
		})
		if err != nil {
			return fmt.Errorf("failed to add cron entry for workflow %s: %w", workflow.ID, err)
		}

		s.entries[workflow.ID] = entryID

		s.logger.InfoContext(ctx, "Scheduled workflow",
			"workflow_id", workflow.ID, "cron", workflow.Trigger.Cron)
	}

	s.cron.Start()

	s.logger.InfoContext(ctx, "Scheduler started", "workflows", len(s.entries))

	return nil
}

// tick creates a pending job for the workflow and runs it. Failures are
// already recorded on the job by the controller, so they only get logged
// here.
func (s *Scheduler) tick(workflowID, ownerID string) {
	ctx := context.Background()

	job, err := s.controller.CreateJob(ctx, workflowID, ownerID)
	if err != nil {
		s.logger.Error("Failed to create scheduled job",
			"workflow_id", workflowID, "error", err)

		return
	}

	if err := s.controller.Run(ctx, job.ID); err != nil {
		s.logger.Error("Scheduled job failed",
			"workflow_id", workflowID, "job_id", job.ID, "error", err)
	}
}

// Stop halts the cron loop and waits for running ticks to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}

	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.cron = nil
	s.entries = make(map[string]cron.EntryID)

	s.logger.InfoContext(ctx, "Scheduler stopped")

	return nil
}

// Entries returns the workflow ids currently registered.
func (s *Scheduler) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.entries))
	for id := range s.entries {
		out = append(out, id)
	}

	return out
}
