package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/formflow/pkg/authoring"
	"github.com/dukex/formflow/pkg/eventbus"
	"github.com/dukex/formflow/pkg/events"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
)

// AuthoringView is the state of one authoring session.
type AuthoringView struct {
	SessionID     string               `json:"sessionId"`
	ActiveFieldID string               `json:"activeFieldId,omitempty"`
	Template      *models.FormTemplate `json:"template"`
}

// Builder owns the authoring sessions of the template builder.
type Builder struct {
	logger    *slog.Logger
	templates persistence.TemplateRepository
	publisher eventbus.EventPublisher
	sessions  *sessionStore[*authoring.Session]
	opts      []authoring.Option
}

// NewBuilder creates a builder service. publisher may be nil.
func NewBuilder(
	logger *slog.Logger,
	templates persistence.TemplateRepository,
	publisher eventbus.EventPublisher,
	ttl time.Duration,
	opts ...authoring.Option,
) *Builder {
	return &Builder{
		logger:    logger.With("module", "builder_service"),
		templates: templates,
		publisher: publisher,
		sessions:  newSessionStore[*authoring.Session](ttl, time.Now),
		opts:      opts,
	}
}

// Create starts authoring a new empty template.
func (b *Builder) Create() *AuthoringView {
	session := authoring.NewSession(b.templates, nil, b.opts...)
	id := b.sessions.put(session)

	b.logger.Info("Authoring session created", "session_id", id)

	return view(id, session)
}

// Open starts authoring a stored template.
func (b *Builder) Open(ctx context.Context, templateID string) (*AuthoringView, error) {
	template, err := b.load(ctx, "Open", templateID)
	if err != nil {
		return nil, err
	}

	session := authoring.NewSession(b.templates, template, b.opts...)
	id := b.sessions.put(session)

	b.logger.InfoContext(ctx, "Authoring session opened", "session_id", id, "template_id", templateID)

	return view(id, session), nil
}

// Clone starts authoring an unsaved draft copy of a stored template.
func (b *Builder) Clone(ctx context.Context, templateID string) (*AuthoringView, error) {
	template, err := b.load(ctx, "Clone", templateID)
	if err != nil {
		return nil, err
	}

	session := authoring.NewCopySession(b.templates, template, b.opts...)
	id := b.sessions.put(session)

	b.logger.InfoContext(ctx, "Authoring session cloned", "session_id", id, "source_template_id", templateID)

	return view(id, session), nil
}

// Get returns the current state of an authoring session.
func (b *Builder) Get(sessionID string) (*AuthoringView, error) {
	var result *AuthoringView

	err := b.sessions.with(sessionID, func(session *authoring.Session) error {
		result = view(sessionID, session)

		return nil
	})

	return result, err
}

// Edit applies one structural operation to an authoring session.
func (b *Builder) Edit(sessionID string, op func(*authoring.Session) error) (*AuthoringView, error) {
	var result *AuthoringView

	err := b.sessions.with(sessionID, func(session *authoring.Session) error {
		if err := op(session); err != nil {
			return err
		}

		result = view(sessionID, session)

		return nil
	})

	return result, err
}

// Publish stores the template as published and announces it.
func (b *Builder) Publish(ctx context.Context, sessionID string) (*AuthoringView, error) {
	var result *AuthoringView

	err := b.sessions.with(sessionID, func(session *authoring.Session) error {
		template, err := session.Publish(ctx)
		if err != nil {
			b.logger.WarnContext(ctx, "Publish rejected", "session_id", sessionID, "error", err)

			return err
		}

		b.logger.InfoContext(ctx, "Template published", "session_id", sessionID, "template_id", template.ID)
		b.announce(ctx, template)

		result = view(sessionID, session)

		return nil
	})

	return result, err
}

// SaveDraft stores the template as a draft.
func (b *Builder) SaveDraft(ctx context.Context, sessionID string) (*AuthoringView, error) {
	var result *AuthoringView

	err := b.sessions.with(sessionID, func(session *authoring.Session) error {
		template, err := session.SaveDraft(ctx)
		if err != nil {
			return err
		}

		b.logger.InfoContext(ctx, "Draft saved", "session_id", sessionID, "template_id", template.ID)

		result = view(sessionID, session)

		return nil
	})

	return result, err
}

// Close discards an authoring session without saving.
func (b *Builder) Close(sessionID string) error {
	if !b.sessions.remove(sessionID) {
		return notFound("Close", "SESSION_NOT_FOUND", sessionID, ErrSessionNotFound)
	}

	return nil
}

// Sweep drops authoring sessions idle longer than the ttl.
func (b *Builder) Sweep() int {
	return b.sessions.sweep()
}

func (b *Builder) load(ctx context.Context, op, templateID string) (*models.FormTemplate, error) {
	template, err := b.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	if template == nil {
		return nil, notFound(op, "TEMPLATE_NOT_FOUND", templateID, ErrTemplateNotFound)
	}

	return template, nil
}

func (b *Builder) announce(ctx context.Context, template *models.FormTemplate) {
	if b.publisher == nil {
		return
	}

	event := events.TemplatePublished{
		BaseEvent:  events.NewBaseEvent(events.TemplatePublishedEvent),
		TemplateID: template.ID,
		Title:      template.Title,
		Category:   template.Category,
		FieldCount: len(template.Fields),
	}

	if err := b.publisher.Publish(ctx, template.ID, event); err != nil {
		b.logger.ErrorContext(ctx, "Failed to publish template event", "template_id", template.ID, "error", err)
	}
}

func view(id string, session *authoring.Session) *AuthoringView {
	return &AuthoringView{
		SessionID:     id,
		ActiveFieldID: session.ActiveFieldID(),
		Template:      session.Template(),
	}
}
