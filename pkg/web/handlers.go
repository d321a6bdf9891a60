package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/formflow/pkg/authoring"
	"github.com/dukex/formflow/pkg/identity"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/services"
	"github.com/dukex/formflow/pkg/uploads"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	templates      *services.Templates
	builder        *services.Builder
	wizard         *services.Wizard
	validator      *validator.Validate
	uploadMaxBytes int64
}

func NewAPIHandlers(
	templates *services.Templates,
	builder *services.Builder,
	wizard *services.Wizard,
	validator *validator.Validate,
	uploadMaxBytes int64,
) *APIHandlers {
	return &APIHandlers{
		templates:      templates,
		builder:        builder,
		wizard:         wizard,
		validator:      validator,
		uploadMaxBytes: uploadMaxBytes,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.templates.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Formflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Formflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Templates

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	req := services.ListTemplatesRequest{
		Category:  c.Query("category"),
		SortBy:    c.Query("sort_by", "created_at"),
		SortOrder: c.Query("sort_order", "desc"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.TemplateStatus(statusStr)
		req.Status = &status
	}

	templates, err := h.templates.ListTemplates(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TemplatesResponse{
		Templates: templates,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	template, err := h.templates.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) DeleteTemplate(c fiber.Ctx) error {
	if err := h.templates.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetTemplateSteps(c fiber.Ctx) error {
	parts, err := h.templates.Steps(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(parts)
}

func (h *APIHandlers) GetTemplateSchema(c fiber.Ctx) error {
	schema, err := h.templates.Schema(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(schema, "application/schema+json")
}

func (h *APIHandlers) GetTemplateSubmissions(c fiber.Ctx) error {
	submissions, err := h.templates.Submissions(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(submissions)
}

func (h *APIHandlers) GetSubmission(c fiber.Ctx) error {
	submission, err := h.templates.Submission(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(submission)
}

// Authoring

func (h *APIHandlers) CreateAuthoring(c fiber.Ctx) error {
	var req DetailsRequest
	if len(c.Body()) > 0 {
		if err := h.bind(c, &req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	created := h.builder.Create()

	view, err := h.builder.Edit(created.SessionID, func(s *authoring.Session) error {
		s.UpdateDetails(req.changes())

		return nil
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *APIHandlers) OpenAuthoring(c fiber.Ctx) error {
	view, err := h.builder.Open(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *APIHandlers) CloneAuthoring(c fiber.Ctx) error {
	view, err := h.builder.Clone(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *APIHandlers) GetAuthoring(c fiber.Ctx) error {
	view, err := h.builder.Get(c.Params("sid"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) CloseAuthoring(c fiber.Ctx) error {
	if err := h.builder.Close(c.Params("sid")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) UpdateDetails(c fiber.Ctx) error {
	var req DetailsRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	return h.edit(c, func(s *authoring.Session) error {
		s.UpdateDetails(req.changes())

		return nil
	})
}

func (h *APIHandlers) AddField(c fiber.Ctx) error {
	return h.edit(c, func(s *authoring.Session) error {
		s.AddField()

		return nil
	})
}

func (h *APIHandlers) UpdateField(c fiber.Ctx) error {
	var req UpdateFieldRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	fieldID := c.Params("fieldId")

	return h.edit(c, func(s *authoring.Session) error {
		_, err := s.UpdateField(fieldID, req.changes())

		return err
	})
}

func (h *APIHandlers) SetFieldKind(c fiber.Ctx) error {
	var req SetKindRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	fieldID := c.Params("fieldId")

	return h.edit(c, func(s *authoring.Session) error {
		_, err := s.SetFieldKind(fieldID, req.Kind)

		return err
	})
}

func (h *APIHandlers) RemoveField(c fiber.Ctx) error {
	fieldID := c.Params("fieldId")

	return h.edit(c, func(s *authoring.Session) error {
		_, err := s.RemoveField(fieldID)

		return err
	})
}

func (h *APIHandlers) DuplicateField(c fiber.Ctx) error {
	fieldID := c.Params("fieldId")

	return h.edit(c, func(s *authoring.Session) error {
		_, err := s.DuplicateField(fieldID)

		return err
	})
}

func (h *APIHandlers) MoveField(c fiber.Ctx) error {
	var req MoveFieldRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	direction, err := authoring.ParseDirection(req.Direction)
	if err != nil {
		return badRequest(c, err.Error())
	}

	fieldID := c.Params("fieldId")

	return h.edit(c, func(s *authoring.Session) error {
		_, err := s.MoveField(fieldID, direction)

		return err
	})
}

func (h *APIHandlers) ReorderField(c fiber.Ctx) error {
	var req ReorderRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	return h.edit(c, func(s *authoring.Session) error {
		_, err := s.ReorderField(*req.From, *req.To)

		return err
	})
}

func (h *APIHandlers) SetActiveField(c fiber.Ctx) error {
	var req ActiveFieldRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	return h.edit(c, func(s *authoring.Session) error {
		return s.SetActiveField(req.FieldID)
	})
}

func (h *APIHandlers) AddOption(c fiber.Ctx) error {
	var req OptionRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	fieldID := c.Params("fieldId")

	return h.edit(c, func(s *authoring.Session) error {
		_, err := s.AddOption(fieldID, req.Label)

		return err
	})
}

func (h *APIHandlers) UpdateOption(c fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return badRequest(c, "option index must be a number")
	}

	var req OptionRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	fieldID := c.Params("fieldId")

	return h.edit(c, func(s *authoring.Session) error {
		_, err := s.UpdateOption(fieldID, index, req.Label)

		return err
	})
}

func (h *APIHandlers) RemoveOption(c fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return badRequest(c, "option index must be a number")
	}

	fieldID := c.Params("fieldId")

	return h.edit(c, func(s *authoring.Session) error {
		_, err := s.RemoveOption(fieldID, index)

		return err
	})
}

func (h *APIHandlers) Publish(c fiber.Ctx) error {
	view, err := h.builder.Publish(c.Context(), c.Params("sid"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) SaveDraft(c fiber.Ctx) error {
	view, err := h.builder.SaveDraft(c.Context(), c.Params("sid"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) edit(c fiber.Ctx, op func(*authoring.Session) error) error {
	view, err := h.builder.Edit(c.Params("sid"), op)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

// Filling

func (h *APIHandlers) StartSession(c fiber.Ctx) error {
	view, err := h.wizard.Start(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	view, err := h.wizard.Get(c.Params("sid"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) CloseSession(c fiber.Ctx) error {
	if err := h.wizard.Close(c.Params("sid")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) SetValues(c fiber.Ctx) error {
	var req SetValuesRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	view, err := h.wizard.SetValues(c.Params("sid"), req.Values)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) AttachFile(c fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "multipart field 'file' is required")
	}

	if h.uploadMaxBytes > 0 && header.Size > h.uploadMaxBytes {
		return handleServiceError(c, fmt.Errorf("%w: %s is %d bytes", uploads.ErrFileTooLarge, header.Filename, header.Size))
	}

	f, err := header.Open()
	if err != nil {
		return handleServiceError(c, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return handleServiceError(c, err)
	}

	file := uploads.File{
		Name:        header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}

	view, err := h.wizard.AttachFile(c.Params("sid"), c.Params("fieldId"), file)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) Advance(c fiber.Ctx) error {
	view, err := h.wizard.Advance(c.Params("sid"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) Retreat(c fiber.Ctx) error {
	view, err := h.wizard.Retreat(c.Params("sid"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) Reset(c fiber.Ctx) error {
	view, err := h.wizard.Reset(c.Params("sid"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) Submit(c fiber.Ctx) error {
	submitter, ok := identity.SubmitterFrom(c)
	if !ok {
		return handleServiceError(c, fiber.NewError(fiber.StatusUnauthorized, identity.ErrMissingToken.Error()))
	}

	submission, err := h.wizard.Submit(c.Context(), c.Params("sid"), submitter)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(submission)
}

func (h *APIHandlers) bind(c fiber.Ctx, req any) error {
	if err := c.Bind().JSON(req); err != nil {
		return fmt.Errorf("invalid JSON format: %w", err)
	}

	if err := h.validator.Struct(req); err != nil {
		return err
	}

	return nil
}
