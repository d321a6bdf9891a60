package web

import (
	"github.com/gofiber/fiber/v3"
)

// Routes mounts the form API on router. Middleware such as authentication
// runs before every route except the health check.
func (h *APIHandlers) Routes(router fiber.Router, middleware ...fiber.Handler) {
	router.Get("/health", h.HealthCheck)

	t := router.Group("/templates", middleware...)
	t.Get("/", h.GetTemplates)
	t.Get("/:id", h.GetTemplate)
	t.Delete("/:id", h.DeleteTemplate)
	t.Get("/:id/steps", h.GetTemplateSteps)
	t.Get("/:id/schema", h.GetTemplateSchema)
	t.Get("/:id/submissions", h.GetTemplateSubmissions)
	t.Post("/:id/authoring", h.OpenAuthoring)
	t.Post("/:id/clone", h.CloneAuthoring)
	t.Post("/:id/sessions", h.StartSession)

	a := router.Group("/authoring", middleware...)
	a.Post("/", h.CreateAuthoring)
	a.Get("/:sid", h.GetAuthoring)
	a.Delete("/:sid", h.CloseAuthoring)
	a.Patch("/:sid", h.UpdateDetails)
	a.Post("/:sid/publish", h.Publish)
	a.Post("/:sid/draft", h.SaveDraft)
	a.Post("/:sid/active", h.SetActiveField)
	a.Post("/:sid/reorder", h.ReorderField)
	a.Post("/:sid/fields", h.AddField)
	a.Patch("/:sid/fields/:fieldId", h.UpdateField)
	a.Delete("/:sid/fields/:fieldId", h.RemoveField)
	a.Put("/:sid/fields/:fieldId/kind", h.SetFieldKind)
	a.Post("/:sid/fields/:fieldId/duplicate", h.DuplicateField)
	a.Post("/:sid/fields/:fieldId/move", h.MoveField)
	a.Post("/:sid/fields/:fieldId/options", h.AddOption)
	a.Patch("/:sid/fields/:fieldId/options/:index", h.UpdateOption)
	a.Delete("/:sid/fields/:fieldId/options/:index", h.RemoveOption)

	s := router.Group("/sessions", middleware...)
	s.Get("/:sid", h.GetSession)
	s.Delete("/:sid", h.CloseSession)
	s.Patch("/:sid/values", h.SetValues)
	s.Post("/:sid/files/:fieldId", h.AttachFile)
	s.Post("/:sid/advance", h.Advance)
	s.Post("/:sid/retreat", h.Retreat)
	s.Post("/:sid/reset", h.Reset)
	s.Post("/:sid/submit", h.Submit)

	sub := router.Group("/submissions", middleware...)
	sub.Get("/:id", h.GetSubmission)
}
