package web

import (
	"errors"
	"strings"

	"github.com/dukex/formflow/pkg/authoring"
	"github.com/dukex/formflow/pkg/fields"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/services"
	"github.com/dukex/formflow/pkg/uploads"
	"github.com/dukex/formflow/pkg/wizard"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// IssuesProblem is a validation problem listing the failing fields.
type IssuesProblem struct {
	*problems.Problem

	Issues []fields.Issue `json:"issues"`
}

// UploadProblem lists the fields whose files could not be stored.
type UploadProblem struct {
	*problems.Problem

	Fields []string `json:"fields"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func problem(c fiber.Ctx, status int, kind string, err error) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(err.Error())

	return c.Status(status).JSON(p)
}

// handleServiceError maps domain errors to problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	var (
		validation *wizard.ValidationError
		upload     *wizard.UploadError
		fiberErr   *fiber.Error
	)

	switch {
	case errors.As(err, &validation):
		p := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail("invalid fields: " + strings.Join(validation.FieldIDs(), ", "))

		return c.Status(fiber.StatusBadRequest).JSON(IssuesProblem{Problem: p, Issues: validation.Issues})

	case authoring.IsStructuralError(err):
		return problem(c, fiber.StatusBadRequest, "structural_error", err)

	case services.IsValidationError(err),
		errors.Is(err, models.ErrShapeMismatch),
		errors.Is(err, wizard.ErrUnknownField),
		errors.Is(err, wizard.ErrNotFileField),
		errors.Is(err, fields.ErrResponsesInvalid),
		uploads.IsClientError(err):
		return problem(c, fiber.StatusBadRequest, "validation_error", err)

	case services.IsNotFoundError(err):
		return problem(c, fiber.StatusNotFound, "not_found", err)

	case wizard.IsConflictError(err):
		return problem(c, fiber.StatusConflict, "conflict", err)

	case errors.As(err, &upload):
		p := problems.NewStatusProblem(502).
			WithInstance(c.Path()).
			WithType("upload_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadGateway).JSON(UploadProblem{Problem: p, Fields: upload.FieldIDs()})

	case errors.As(err, &fiberErr):
		return problem(c, fiberErr.Code, "request_error", fiberErr)

	default:
		p := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(p)
	}
}

// ErrorHandler renders errors returned by middleware as problems.
func ErrorHandler(c fiber.Ctx, err error) error {
	return handleServiceError(c, err)
}
