package wizard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/formflow/pkg/events"
	"github.com/dukex/formflow/pkg/eventbus"
	"github.com/dukex/formflow/pkg/fields"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/otelhelper"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/dukex/formflow/pkg/uploads"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultUploadConcurrency bounds the uploads running for one submit.
const DefaultUploadConcurrency = 4

// Assembler turns a completed session into a stored submission.
type Assembler struct {
	logger      *slog.Logger
	registry    *fields.Registry
	uploader    uploads.Uploader
	submissions persistence.SubmissionRepository
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	now         func() time.Time
	concurrency int
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithAssemblerClock sets the time source for SubmittedAt.
func WithAssemblerClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) { a.now = now }
}

// WithUploadConcurrency bounds the uploads running at once.
func WithUploadConcurrency(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewAssembler wires the submission pipeline. publisher may be nil.
func NewAssembler(
	logger *slog.Logger,
	registry *fields.Registry,
	uploader uploads.Uploader,
	submissions persistence.SubmissionRepository,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
	opts ...AssemblerOption,
) *Assembler {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	a := &Assembler{
		logger:      logger.With("module", "submission_assembler"),
		registry:    registry,
		uploader:    uploader,
		submissions: submissions,
		publisher:   publisher,
		tracer:      tracer,
		now:         time.Now,
		concurrency: DefaultUploadConcurrency,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Submit validates every step, resolves attached files, and stores the
// submission. The record is stored at most once per session. On any error
// the session stays editable; files resolved before a failure are kept so a
// retry does not upload them again.
func (a *Assembler) Submit(ctx context.Context, session *Session, submitter models.Submitter) (*models.FormSubmission, error) {
	template := session.Template()

	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "wizard.submit",
		attribute.String(otelhelper.TemplateIDKey, template.ID),
		attribute.String(otelhelper.TemplateNameKey, template.Title),
	)
	defer span.End()

	if session.State() == StateSubmitted {
		return nil, ErrAlreadySubmitted
	}

	if !session.IsLastStep() {
		return nil, ErrNotLastStep
	}

	for index := range session.Steps() {
		if issues := session.validateStep(index); len(issues) > 0 {
			err := &ValidationError{Step: index, Issues: issues}
			otelhelper.SetError(span, err, attribute.Int(otelhelper.StepIndexKey, index))

			return nil, err
		}
	}

	if err := a.resolveUploads(ctx, session); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	responses, err := a.responses(session)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	submission := &models.FormSubmission{
		FormID:      template.ID,
		FormTitle:   template.Title,
		SubmittedBy: submitter,
		SubmittedAt: a.now().UTC(),
		Responses:   responses,
		Status:      models.SubmissionStatusPending,
	}

	id, err := a.submissions.Create(ctx, submission)
	if err != nil {
		if !persistence.IsPersistenceError(err) {
			err = persistence.NewSubmissionError("create", "", err)
		}

		otelhelper.SetError(span, err)
		a.logger.ErrorContext(ctx, "Failed to store submission", "form_id", template.ID, "error", err)

		return nil, err
	}

	submission.ID = id
	session.markSubmitted(id)

	span.SetAttributes(attribute.String(otelhelper.SubmissionIDKey, id))
	a.logger.InfoContext(ctx, "Submission stored", "submission_id", id, "form_id", template.ID)

	a.publish(ctx, submission, countUploads(responses))

	return submission, nil
}

func (a *Assembler) resolveUploads(ctx context.Context, session *Session) error {
	pending := session.pendingUploads()
	if len(pending) == 0 {
		return nil
	}

	templateID := session.Template().ID

	var (
		mu       sync.Mutex
		resolved = make(map[string]models.UploadReference, len(pending))
		failures = make(map[string]error)
	)

	var group errgroup.Group
	group.SetLimit(a.concurrency)

	for fieldID, file := range pending {
		group.Go(func() error {
			scopeKey := uploads.ScopeKey(templateID, fieldID, file.Name)

			uploadCtx, span := otelhelper.StartSpan(ctx, a.tracer, "wizard.upload",
				attribute.String(otelhelper.FieldIDKey, fieldID),
				attribute.String(otelhelper.ScopeKeyKey, scopeKey),
			)
			defer span.End()

			ref, err := a.uploader.Upload(uploadCtx, scopeKey, file)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				otelhelper.SetError(span, err)
				a.logger.WarnContext(ctx, "Upload failed", "field_id", fieldID, "scope_key", scopeKey, "error", err)
				failures[fieldID] = err

				return nil
			}

			resolved[fieldID] = ref

			return nil
		})
	}

	_ = group.Wait()

	for fieldID, ref := range resolved {
		session.resolve(fieldID, ref)
	}

	if len(failures) > 0 {
		return &UploadError{Failures: failures}
	}

	return nil
}

func (a *Assembler) responses(session *Session) (map[string]any, error) {
	template := session.Template()
	responses := make(map[string]any)

	for _, field := range template.Fields {
		if !field.Kind.Spec().Capturable {
			continue
		}

		value := session.Value(field.ID)
		if value == nil || value.Empty() {
			continue
		}

		serialized, err := a.registry.Serialize(field, value)
		if err != nil {
			return nil, err
		}

		responses[field.ID] = serialized
	}

	if err := a.registry.ValidateResponses(template, responses); err != nil {
		return nil, err
	}

	return responses, nil
}

func (a *Assembler) publish(ctx context.Context, submission *models.FormSubmission, files int) {
	if a.publisher == nil {
		return
	}

	event := events.SubmissionCreated{
		BaseEvent:    events.NewBaseEvent(events.SubmissionCreatedEvent),
		SubmissionID: submission.ID,
		FormID:       submission.FormID,
		FormTitle:    submission.FormTitle,
		SubmitterID:  submission.SubmittedBy.ID,
		FileCount:    files,
	}

	if err := a.publisher.Publish(ctx, submission.FormID, event); err != nil {
		a.logger.ErrorContext(ctx, "Failed to publish submission event", "submission_id", submission.ID, "error", err)
	}
}

func countUploads(responses map[string]any) int {
	count := 0

	for _, response := range responses {
		if _, ok := response.(models.UploadReference); ok {
			count++
		}
	}

	return count
}
