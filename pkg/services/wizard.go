package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/formflow/pkg/fields"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/dukex/formflow/pkg/steps"
	"github.com/dukex/formflow/pkg/uploads"
	"github.com/dukex/formflow/pkg/wizard"
)

// FillingView is the state of one filling session with its current step rendered.
type FillingView struct {
	SessionID    string              `json:"sessionId"`
	TemplateID   string              `json:"templateId"`
	Title        string              `json:"title"`
	State        wizard.State        `json:"state"`
	Step         int                 `json:"step"`
	StepCount    int                 `json:"stepCount"`
	StepTitles   []string            `json:"stepTitles"`
	IsLastStep   bool                `json:"isLastStep"`
	Fields       []fields.Descriptor `json:"fields"`
	Pending      []string            `json:"pendingFiles,omitempty"`
	SubmissionID string              `json:"submissionId,omitempty"`
}

// Wizard owns the filling sessions of published templates.
type Wizard struct {
	logger    *slog.Logger
	templates persistence.TemplateRepository
	registry  *fields.Registry
	assembler *wizard.Assembler
	sessions  *sessionStore[*wizard.Session]
}

// NewWizard creates a wizard service.
func NewWizard(
	logger *slog.Logger,
	templates persistence.TemplateRepository,
	registry *fields.Registry,
	assembler *wizard.Assembler,
	ttl time.Duration,
) *Wizard {
	return &Wizard{
		logger:    logger.With("module", "wizard_service"),
		templates: templates,
		registry:  registry,
		assembler: assembler,
		sessions:  newSessionStore[*wizard.Session](ttl, time.Now),
	}
}

// Start loads a published template and opens a filling session at its first step.
func (w *Wizard) Start(ctx context.Context, templateID string) (*FillingView, error) {
	template, err := w.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	if template == nil {
		return nil, notFound("Start", "TEMPLATE_NOT_FOUND", templateID, ErrTemplateNotFound)
	}

	session, err := wizard.NewSession(template, w.registry)
	if err != nil {
		return nil, err
	}

	id := w.sessions.put(session)

	w.logger.InfoContext(ctx, "Filling session started", "session_id", id, "template_id", templateID)

	return fillingView(id, session), nil
}

// Get returns the current state of a filling session.
func (w *Wizard) Get(sessionID string) (*FillingView, error) {
	return w.apply(sessionID, func(*wizard.Session) error { return nil })
}

// SetValues captures raw values keyed by field id, in form order. The first
// failure stops the batch; values before it stay captured.
func (w *Wizard) SetValues(sessionID string, values map[string]any) (*FillingView, error) {
	return w.apply(sessionID, func(session *wizard.Session) error {
		template := session.Template()

		for id := range values {
			if template.Field(id) == nil {
				return fmt.Errorf("%w: %s", wizard.ErrUnknownField, id)
			}
		}

		for _, field := range template.Fields {
			raw, ok := values[field.ID]
			if !ok {
				continue
			}

			if err := session.SetValue(field.ID, raw); err != nil {
				return err
			}
		}

		return nil
	})
}

// AttachFile holds a file for a file field until submit.
func (w *Wizard) AttachFile(sessionID, fieldID string, file uploads.File) (*FillingView, error) {
	return w.apply(sessionID, func(session *wizard.Session) error {
		return session.AttachFile(fieldID, file)
	})
}

// Advance moves to the next step when the current one validates.
func (w *Wizard) Advance(sessionID string) (*FillingView, error) {
	return w.apply(sessionID, func(session *wizard.Session) error {
		return session.Advance()
	})
}

// Retreat moves to the previous step.
func (w *Wizard) Retreat(sessionID string) (*FillingView, error) {
	return w.apply(sessionID, func(session *wizard.Session) error {
		return session.Retreat()
	})
}

// Reset starts a fresh submission in the same session.
func (w *Wizard) Reset(sessionID string) (*FillingView, error) {
	return w.apply(sessionID, func(session *wizard.Session) error {
		session.Reset()

		return nil
	})
}

// Submit assembles and stores the submission of a session on its last step.
func (w *Wizard) Submit(ctx context.Context, sessionID string, submitter models.Submitter) (*models.FormSubmission, error) {
	var submission *models.FormSubmission

	err := w.sessions.with(sessionID, func(session *wizard.Session) error {
		var err error

		submission, err = w.assembler.Submit(ctx, session, submitter)

		return err
	})
	if err != nil {
		w.logger.WarnContext(ctx, "Submit failed", "session_id", sessionID, "error", err)

		return nil, err
	}

	return submission, nil
}

// Close discards a filling session.
func (w *Wizard) Close(sessionID string) error {
	if !w.sessions.remove(sessionID) {
		return notFound("Close", "SESSION_NOT_FOUND", sessionID, ErrSessionNotFound)
	}

	return nil
}

// Sweep drops filling sessions idle longer than the ttl.
func (w *Wizard) Sweep() int {
	return w.sessions.sweep()
}

func (w *Wizard) apply(sessionID string, op func(*wizard.Session) error) (*FillingView, error) {
	var result *FillingView

	err := w.sessions.with(sessionID, func(session *wizard.Session) error {
		if err := op(session); err != nil {
			return err
		}

		result = fillingView(sessionID, session)

		return nil
	})

	return result, err
}

func fillingView(id string, session *wizard.Session) *FillingView {
	template := session.Template()
	parts := session.Steps()

	return &FillingView{
		SessionID:    id,
		TemplateID:   template.ID,
		Title:        template.Title,
		State:        session.State(),
		Step:         session.Current(),
		StepCount:    len(parts),
		StepTitles:   steps.Titles(parts),
		IsLastStep:   session.IsLastStep(),
		Fields:       session.Describe(),
		Pending:      session.PendingFields(),
		SubmissionID: session.SubmissionID(),
	}
}
