package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/formflow/pkg/cmd"
	"github.com/dukex/formflow/pkg/identity"
	"github.com/dukex/formflow/pkg/log"
	"github.com/dukex/formflow/pkg/otelhelper"
	"github.com/dukex/formflow/pkg/services"
	"github.com/dukex/formflow/pkg/uploads/file"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "formflow-api",
		Usage:                 "Author form templates and collect submissions",
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
				Usage:    "Database connection URL for persistence (file:// or postgres://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "upload-url",
				Usage:   "Location of the upload store",
				Value:   "file://./uploads",
				Sources: cli.EnvVars("UPLOAD_URL"),
			},
			&cli.Int64Flag{
				Name:    "upload-max-bytes",
				Usage:   "Largest accepted file in bytes",
				Value:   file.DefaultMaxBytes,
				Sources: cli.EnvVars("UPLOAD_MAX_BYTES"),
			},
			&cli.StringFlag{
				Name:    "upload-cache-url",
				Usage:   "Redis URL caching resolved upload references",
				Sources: cli.EnvVars("UPLOAD_CACHE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "jwt-secret",
				Usage:    "Secret used to verify bearer tokens",
				Required: true,
				Sources:  cli.EnvVars("JWT_SECRET"),
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Usage:   "Idle time after which authoring and filling sessions expire",
				Value:   services.DefaultSessionTTL,
				Sources: cli.EnvVars("SESSION_TTL"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
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

			logger.InfoContext(ctx, "Initializing Formflow API")

			tracer := otelhelper.NoopTracer()

			if command.Bool("otel-enabled") {
				t, shutdown, err := otelhelper.NewTracer(ctx, "formflow-api")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				defer func() {
					if err := shutdown(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
					}
				}()

				tracer = t
			}

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			uploader, err := cmd.NewUploader(
				ctx,
				logger,
				command.String("upload-url"),
				command.Int64("upload-max-bytes"),
				command.String("upload-cache-url"),
			)
			if err != nil {
				return err
			}

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api := NewAPI(
				logger,
				persistence,
				uploader,
				eventBus,
				tracer,
				identity.NewVerifier(command.String("jwt-secret"), identity.DefaultTokenTTL),
				Config{
					SessionTTL:     command.Duration("session-ttl"),
					UploadMaxBytes: command.Int64("upload-max-bytes"),
				},
			)

			err = api.Start(command.Int("port"))
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
