// Package logtool provides a tool that writes a message to the service log.
// Useful for debugging workflows without external side effects.
package logtool

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const ToolID = "log"

type Tool struct {
	logger *slog.Logger
}

func NewTool(logger *slog.Logger) *Tool {
	return &Tool{logger: logger.With("module", "log_tool")}
}

func (t *Tool) ID() string { return ToolID }

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	message := fmt.Sprintf("%v", args["message"])
	level, _ := args["level"].(string)

	switch level {
	case "debug":
		t.logger.DebugContext(ctx, message)
	case "warn":
		t.logger.WarnContext(ctx, message)
	case "error":
		t.logger.ErrorContext(ctx, message)
	default:
		t.logger.InfoContext(ctx, message)
	}

	return map[string]any{
		"logged":    true,
		"message":   message,
		"logged_at": time.Now().UTC().Format(time.RFC3339),
	}, nil
}
