// Package main provides the Formflow API server implementation.
package main

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/formflow/pkg/eventbus"
	"github.com/dukex/formflow/pkg/fields"
	"github.com/dukex/formflow/pkg/identity"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/dukex/formflow/pkg/services"
	"github.com/dukex/formflow/pkg/uploads"
	uploadfile "github.com/dukex/formflow/pkg/uploads/file"
	"github.com/dukex/formflow/pkg/web"
	"github.com/dukex/formflow/pkg/wizard"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

// multipartOverhead is the body allowance on top of the largest file for
// multipart boundaries and headers.
const multipartOverhead = 1 << 20

type Config struct {
	SessionTTL     time.Duration
	SweepSchedule  string
	UploadMaxBytes int64
}

type API struct {
	logger   *slog.Logger
	verifier *identity.Verifier
	validate *validator.Validate
	config   Config

	templates *services.Templates
	builder   *services.Builder
	wizard    *services.Wizard
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	uploader uploads.Uploader,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
	verifier *identity.Verifier,
	config Config,
) *API {
	if config.SessionTTL <= 0 {
		config.SessionTTL = services.DefaultSessionTTL
	}

	if config.SweepSchedule == "" {
		config.SweepSchedule = services.DefaultSweepSchedule
	}

	if config.UploadMaxBytes <= 0 {
		config.UploadMaxBytes = uploadfile.DefaultMaxBytes
	}

	registry := fields.NewRegistry(nil)
	assembler := wizard.NewAssembler(logger, registry, uploader, persistence.SubmissionRepository(), eventBus, tracer)

	return &API{
		logger:    logger,
		verifier:  verifier,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		config:    config,
		templates: services.NewTemplates(persistence, registry),
		builder:   services.NewBuilder(logger, persistence.TemplateRepository(), eventBus, config.SessionTTL),
		wizard:    services.NewWizard(logger, persistence.TemplateRepository(), registry, assembler, config.SessionTTL),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.templates, a.builder, a.wizard, a.validate, a.config.UploadMaxBytes)

	app := fiber.New(fiber.Config{
		ErrorHandler: web.ErrorHandler,
		BodyLimit:    int(a.config.UploadMaxBytes + multipartOverhead),
	})
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Formflow API")
	})

	handlers.Routes(app, identity.Middleware(a.verifier))

	return app
}

// Sweeper expires idle authoring and filling sessions.
func (a *API) Sweeper() *services.Sweeper {
	return services.NewSweeper(a.logger, a.config.SweepSchedule, a.builder, a.wizard)
}

func (a *API) Start(port int) error {
	sweeper := a.Sweeper()

	err := sweeper.Start()
	if err != nil {
		return err
	}
	defer sweeper.Stop()

	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
