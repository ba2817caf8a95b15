package cmd

import (
	"fmt"
	"log/slog"

	"github.com/striderun/stride/pkg/statestore"
	"github.com/striderun/stride/pkg/tools"
	"github.com/striderun/stride/pkg/tools/httprequest"
	"github.com/striderun/stride/pkg/tools/logtool"
	"github.com/striderun/stride/pkg/tools/statetool"
	"github.com/striderun/stride/pkg/tools/telegram"
)

// NewToolInvoker builds the production tool registry and its dispatcher. The
// telegram tool is only registered when a bot token is configured.
func NewToolInvoker(logger *slog.Logger, store statestore.Store, telegramToken string) tools.Invoker {
	registry := tools.NewRegistry(logger)

	registry.Register(httprequest.NewTool(httprequest.Config{}, logger))
	registry.Register(logtool.NewTool(logger))
	registry.Register(statetool.NewTool(store, logger))

	if telegramToken != "" {
		tool, err := telegram.NewTool(telegram.Config{Token: telegramToken}, logger)
		if err != nil {
			panic(fmt.Errorf("failed to create telegram tool: %w", err))
		}

		registry.Register(tool)
	}

	return tools.NewDispatcher(registry, logger)
}
