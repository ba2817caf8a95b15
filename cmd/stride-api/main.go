package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/striderun/stride/pkg/cmd"
	"github.com/striderun/stride/pkg/engine"
	"github.com/striderun/stride/pkg/jobs"
	"github.com/striderun/stride/pkg/log"
	"github.com/striderun/stride/pkg/otelhelper"
	"github.com/striderun/stride/pkg/sandbox"
	"github.com/striderun/stride/pkg/usercontext"
)

const defaultPort = 9090

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "stride-api",
		Usage:                 "Create and manage workflows and their jobs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL for the workflow state store (in-memory when empty)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "telegram-token",
				Usage:   "Telegram bot token for the telegram tool",
				Sources: cli.EnvVars("TELEGRAM_BOT_TOKEN"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing export",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Stride API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "stride-api", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			if err := cmd.SubscribeJobAuditLog(ctx, eventBus, logger); err != nil {
				logger.ErrorContext(ctx, "Failed to subscribe to job events", "error", err)

				return err
			}

			config := jobs.Config{
				Persistence: persistence,
				Executor: engine.NewExecutor(
					sandbox.NewRunner(sandbox.Config{Logger: logger}),
					cmd.NewToolInvoker(logger, cmd.NewStateStore(command.String("redis-url")),
						command.String("telegram-token")),
					logger,
				),
				Users:     usercontext.NewStaticProvider(),
				Publisher: eventBus,
				Logger:    logger,
			}

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "stride-api")
				if err != nil {
					logger.ErrorContext(ctx, "Failed to initialize tracer", "error", err)

					return err
				}

				config.Tracer = tracer
			}

			api := NewAPI(logger, persistence, jobs.NewController(config))

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
