package tools

import (
	"context"
	"log/slog"
)

// Dispatcher is the live Invoker: it resolves the tool from the registry and
// propagates the external system's success or failure.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logger.With("module", "tool_dispatcher"),
	}
}

func (d *Dispatcher) Invoke(ctx context.Context, toolName string, args map[string]any) (any, error) {
	tool, err := d.registry.Get(toolName)
	if err != nil {
		return nil, &Error{Tool: toolName, Err: err}
	}

	d.logger.InfoContext(ctx, "Invoking tool", "tool", toolName)

	result, err := tool.Invoke(ctx, args)
	if err != nil {
		d.logger.ErrorContext(ctx, "Tool invocation failed", "tool", toolName, "error", err)

		return nil, &Error{Tool: toolName, Err: err}
	}

	return result, nil
}

var _ Invoker = (*Dispatcher)(nil)
