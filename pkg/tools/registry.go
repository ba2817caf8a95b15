package tools

import (
	"fmt"
	"log/slog"
)

// Registry holds the tools available to workflows.
type Registry struct {
	logger *slog.Logger
	tools  map[string]Tool
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		tools:  make(map[string]Tool),
	}
}

func (r *Registry) Register(tool Tool) {
	r.tools[tool.ID()] = tool
	r.logger.Debug("Registered tool", "tool", tool.ID())
}

func (r *Registry) Get(toolName string) (Tool, error) {
	tool, ok := r.tools[toolName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrToolNotRegistered, toolName)
	}

	return tool, nil
}

// IDs returns the registered tool names.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}

	return ids
}
