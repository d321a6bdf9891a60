package authoring_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/dukex/formflow/pkg/authoring"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	creates int
	updates int
	fail    error
	stored  map[string]*models.FormTemplate
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{stored: make(map[string]*models.FormTemplate)}
}

func (r *fakeRepo) Create(_ context.Context, template *models.FormTemplate) (string, error) {
	r.creates++
	if r.fail != nil {
		return "", r.fail
	}

	id := fmt.Sprintf("tpl-%d", r.creates)
	stored := template.Clone()
	stored.ID = id
	r.stored[id] = stored

	return id, nil
}

func (r *fakeRepo) Update(_ context.Context, id string, template *models.FormTemplate) error {
	r.updates++
	if r.fail != nil {
		return r.fail
	}

	r.stored[id] = template.Clone()

	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*models.FormTemplate, error) {
	return r.stored[id], nil
}

func (r *fakeRepo) List(context.Context, persistence.ListTemplatesOptions) ([]*models.FormTemplate, error) {
	return nil, nil
}

func (r *fakeRepo) Delete(context.Context, string) error {
	return nil
}

// tickingClock advances one second on every call.
func tickingClock() func() time.Time {
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	return func() time.Time {
		current = current.Add(time.Second)

		return current
	}
}

func sequentialIDs() func() string {
	next := 0

	return func() string {
		next++

		return fmt.Sprintf("f%d", next)
	}
}

func newSession(repo persistence.TemplateRepository) *authoring.Session {
	return authoring.NewSession(repo, nil,
		authoring.WithClock(tickingClock()),
		authoring.WithIDGenerator(sequentialIDs()),
	)
}

func ids(template *models.FormTemplate) []string {
	out := make([]string, 0, len(template.Fields))
	for _, field := range template.Fields {
		out = append(out, field.ID)
	}

	return out
}

func TestSession_AddField(t *testing.T) {
	t.Parallel()

	session := newSession(newFakeRepo())

	template := session.AddField()
	require.Len(t, template.Fields, 1)

	field := template.Fields[0]
	assert.Equal(t, "f1", field.ID)
	assert.Equal(t, models.KindText, field.Kind)
	assert.False(t, field.Required)
	assert.Equal(t, "f1", session.ActiveFieldID())

	session.AddField()
	assert.Equal(t, "f2", session.ActiveFieldID())
}

func TestSession_UpdateField(t *testing.T) {
	t.Parallel()

	session := newSession(newFakeRepo())
	session.AddField()

	label := "<b>Company</b> name & co"
	required := true

	template, err := session.UpdateField("f1", authoring.FieldChanges{Label: &label, Required: &required, Default: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Company name & co", template.Fields[0].Label)
	assert.True(t, template.Fields[0].Required)
	assert.Equal(t, models.TextValue("Acme"), template.Fields[0].Default)

	before := session.Template()

	unchanged, err := session.UpdateField("missing", authoring.FieldChanges{Label: &label})
	require.NoError(t, err)
	assert.Equal(t, before, unchanged)

	_, err = session.SetFieldKind("f1", models.KindNumber)
	require.NoError(t, err)

	_, err = session.UpdateField("f1", authoring.FieldChanges{Default: "many"})
	require.ErrorIs(t, err, models.ErrShapeMismatch)
	assert.True(t, authoring.IsStructuralError(err))

	template, err = session.UpdateField("f1", authoring.FieldChanges{ClearDefault: true})
	require.NoError(t, err)
	assert.Nil(t, template.Fields[0].Default)
}

func TestSession_SetFieldKind_SeedsOptions(t *testing.T) {
	t.Parallel()

	session := newSession(newFakeRepo())
	session.AddField()

	template, err := session.SetFieldKind("f1", models.KindSelect)
	require.NoError(t, err)
	assert.Equal(t, []string{"Option 1", "Option 2", "Option 3"}, template.Fields[0].Options)

	_, err = session.UpdateOption("f1", 0, "Seed")
	require.NoError(t, err)

	template, err = session.SetFieldKind("f1", models.KindRadio)
	require.NoError(t, err)
	assert.Equal(t, []string{"Seed", "Option 2", "Option 3"}, template.Fields[0].Options)

	_, err = session.SetFieldKind("f1", "signature")
	require.ErrorIs(t, err, authoring.ErrInvalidKind)

	_, err = session.SetFieldKind("missing", models.KindDate)
	require.ErrorIs(t, err, authoring.ErrFieldNotFound)
}

func TestSession_SetFieldKind_KeepsAttributes(t *testing.T) {
	t.Parallel()

	session := newSession(newFakeRepo())
	session.AddField()

	label, placeholder := "Stage", "Pick one"
	_, err := session.UpdateField("f1", authoring.FieldChanges{Label: &label, Placeholder: &placeholder, Default: "Seed"})
	require.NoError(t, err)

	template, err := session.SetFieldKind("f1", models.KindSelect)
	require.NoError(t, err)

	field := template.Fields[0]
	assert.Equal(t, "Stage", field.Label)
	assert.Equal(t, "Pick one", field.Placeholder)
	assert.Equal(t, models.TextValue("Seed"), field.Default)

	template, err = session.SetFieldKind("f1", models.KindFile)
	require.NoError(t, err)
	assert.Nil(t, template.Fields[0].Default)
}

func TestSession_RemoveField(t *testing.T) {
	t.Parallel()

	session := newSession(newFakeRepo())
	session.AddField()
	session.AddField()

	template, err := session.RemoveField("f2")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids(template))
	assert.Empty(t, session.ActiveFieldID())

	require.NoError(t, session.SetActiveField("f1"))

	_, err = session.RemoveField("f2")
	require.ErrorIs(t, err, authoring.ErrFieldNotFound)
	assert.Equal(t, "f1", session.ActiveFieldID())
}

func TestSession_MoveField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		id        string
		direction authoring.Direction
		expected  []string
	}{
		{name: "first up is a no-op", id: "f1", direction: authoring.Up, expected: []string{"f1", "f2", "f3"}},
		{name: "last down is a no-op", id: "f3", direction: authoring.Down, expected: []string{"f1", "f2", "f3"}},
		{name: "middle up", id: "f2", direction: authoring.Up, expected: []string{"f2", "f1", "f3"}},
		{name: "middle down", id: "f2", direction: authoring.Down, expected: []string{"f1", "f3", "f2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			session := newSession(newFakeRepo())
			for range 3 {
				session.AddField()
			}

			template, err := session.MoveField(tt.id, tt.direction)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(template))
		})
	}
}

func TestSession_ReorderField(t *testing.T) {
	t.Parallel()

	session := newSession(newFakeRepo())
	for range 4 {
		session.AddField()
	}

	template, err := session.ReorderField(0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"f2", "f3", "f1", "f4"}, ids(template))

	template, err = session.ReorderField(3, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"f4", "f2", "f3", "f1"}, ids(template))

	_, err = session.ReorderField(0, 4)
	require.ErrorIs(t, err, authoring.ErrIndexOutOfRange)

	_, err = session.ReorderField(-1, 0)
	require.ErrorIs(t, err, authoring.ErrIndexOutOfRange)
}

func TestSession_ReorderField_SameIndexKeepsUpdatedAt(t *testing.T) {
	t.Parallel()

	session := newSession(newFakeRepo())
	session.AddField()
	session.AddField()

	before := session.Template()

	template, err := session.ReorderField(1, 1)
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, template.UpdatedAt)
	assert.Equal(t, before.UpdatedAt, session.Template().UpdatedAt)
	assert.Equal(t, []string{"f1", "f2"}, ids(template))
}

// Every valid reorder or move on a five-field template keeps the id multiset intact.
func TestSession_ReorderInvariants(t *testing.T) {
	t.Parallel()

	const count = 5

	check := func(t *testing.T, template *models.FormTemplate) {
		t.Helper()

		got := ids(template)
		slices.Sort(got)
		assert.Equal(t, []string{"f1", "f2", "f3", "f4", "f5"}, got)
	}

	for from := range count {
		for to := range count {
			session := newSession(newFakeRepo())
			for range count {
				session.AddField()
			}

			template, err := session.ReorderField(from, to)
			require.NoError(t, err)
			check(t, template)
			assert.Equal(t, fmt.Sprintf("f%d", from+1), template.Fields[to].ID)
		}
	}

	for i := range count {
		for _, direction := range []authoring.Direction{authoring.Up, authoring.Down} {
			session := newSession(newFakeRepo())
			for range count {
				session.AddField()
			}

			template, err := session.MoveField(fmt.Sprintf("f%d", i+1), direction)
			require.NoError(t, err)
			check(t, template)
		}
	}
}

func TestSession_DuplicateField(t *testing.T) {
	t.Parallel()

	session := newSession(newFakeRepo())
	session.AddField()
	session.AddField()

	label := "Founders"
	_, err := session.UpdateField("f1", authoring.FieldChanges{Label: &label})
	require.NoError(t, err)

	template, err := session.DuplicateField("f1")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f3", "f2"}, ids(template))
	assert.Equal(t, "Founders", template.Fields[1].Label)
	assert.Equal(t, "f3", session.ActiveFieldID())
}

func TestSession_Options(t *testing.T) {
	t.Parallel()

	session := newSession(newFakeRepo())
	session.AddField()

	_, err := session.AddOption("f1", "Seed")
	require.ErrorIs(t, err, authoring.ErrOptionsNotUsed)

	_, err = session.SetFieldKind("f1", models.KindCheckbox)
	require.NoError(t, err)

	template, err := session.AddOption("f1", "Bridge")
	require.NoError(t, err)
	assert.Equal(t, []string{"Option 1", "Option 2", "Option 3", "Bridge"}, template.Fields[0].Options)

	_, err = session.UpdateField("f1", authoring.FieldChanges{Default: []any{"Option 2", "Bridge"}})
	require.NoError(t, err)

	template, err = session.RemoveOption("f1", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Option 1", "Option 2", "Option 3"}, template.Fields[0].Options)
	assert.Equal(t, models.ChoicesValue{"Option 2"}, template.Fields[0].Default)

	_, err = session.UpdateOption("f1", 7, "x")
	require.ErrorIs(t, err, authoring.ErrOptionNotFound)
}

func TestSession_MutationsRefreshUpdatedAt(t *testing.T) {
	t.Parallel()

	session := newSession(newFakeRepo())
	last := session.Template().UpdatedAt

	title := "Demo day"

	mutations := []func() (*models.FormTemplate, error){
		func() (*models.FormTemplate, error) { return session.AddField(), nil },
		func() (*models.FormTemplate, error) { return session.AddField(), nil },
		func() (*models.FormTemplate, error) { return session.UpdateDetails(authoring.DetailChanges{Title: &title}), nil },
		func() (*models.FormTemplate, error) { return session.SetFieldKind("f1", models.KindHeading) },
		func() (*models.FormTemplate, error) { return session.MoveField("f2", authoring.Up) },
		func() (*models.FormTemplate, error) { return session.ReorderField(0, 1) },
		func() (*models.FormTemplate, error) { return session.DuplicateField("f1") },
		func() (*models.FormTemplate, error) { return session.RemoveField("f3") },
		func() (*models.FormTemplate, error) { return session.Publish(t.Context()) },
	}

	for i, mutate := range mutations {
		template, err := mutate()
		require.NoError(t, err, i)
		assert.True(t, template.UpdatedAt.After(last), "mutation %d must refresh updatedAt", i)
		last = template.UpdatedAt
	}
}

func TestSession_PublishPreconditions(t *testing.T) {
	t.Parallel()

	blank := "   "

	tests := []struct {
		name     string
		prepare  func(s *authoring.Session)
		expected error
	}{
		{
			name:     "missing title",
			prepare:  func(s *authoring.Session) { s.AddField() },
			expected: authoring.ErrMissingTitle,
		},
		{
			name: "whitespace title",
			prepare: func(s *authoring.Session) {
				s.AddField()
				s.UpdateDetails(authoring.DetailChanges{Title: &blank})
			},
			expected: authoring.ErrMissingTitle,
		},
		{
			name: "no fields",
			prepare: func(s *authoring.Session) {
				title := "Intake"
				s.UpdateDetails(authoring.DetailChanges{Title: &title})
			},
			expected: authoring.ErrNoFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for _, save := range []func(*authoring.Session) (*models.FormTemplate, error){
				func(s *authoring.Session) (*models.FormTemplate, error) { return s.Publish(t.Context()) },
				func(s *authoring.Session) (*models.FormTemplate, error) { return s.SaveDraft(t.Context()) },
			} {
				repo := newFakeRepo()
				session := newSession(repo)
				tt.prepare(session)

				_, err := save(session)
				require.ErrorIs(t, err, tt.expected)
				assert.True(t, authoring.IsStructuralError(err))
				assert.Zero(t, repo.creates)
				assert.Zero(t, repo.updates)
				assert.Empty(t, session.Template().ID)
			}
		})
	}
}

func TestCheck_FieldStructure(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		fields   []*models.FormField
		expected error
	}{
		"distinct ids": {
			fields: []*models.FormField{
				{ID: "a", Kind: models.KindText},
				{ID: "b", Kind: models.KindEmail},
			},
		},
		"duplicate id": {
			fields: []*models.FormField{
				{ID: "a", Kind: models.KindText},
				{ID: "b", Kind: models.KindHeading},
				{ID: "a", Kind: models.KindEmail},
			},
			expected: authoring.ErrDuplicateFieldID,
		},
		"unknown kind": {
			fields: []*models.FormField{
				{ID: "a", Kind: models.FieldKind("slider")},
			},
			expected: authoring.ErrInvalidKind,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			template := &models.FormTemplate{Title: "Intake", Fields: tt.fields}

			err := authoring.Check(template)
			if tt.expected == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.expected)
			assert.True(t, authoring.IsStructuralError(err))

			repo := newFakeRepo()
			_, err = authoring.NewSession(repo, template).Publish(t.Context())
			require.ErrorIs(t, err, tt.expected)
			assert.Zero(t, repo.creates)
			assert.Zero(t, repo.updates)
		})
	}
}

func TestSession_PublishCreatesThenUpdates(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	session := newSession(repo)
	title := "Intake"

	session.UpdateDetails(authoring.DetailChanges{Title: &title})
	session.AddField()

	draft, err := session.SaveDraft(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", draft.ID)
	assert.Equal(t, models.TemplateStatusDraft, draft.Status)
	assert.Equal(t, 1, repo.creates)

	published, err := session.Publish(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", published.ID)
	assert.True(t, published.IsPublished())
	assert.Equal(t, 1, repo.creates)
	assert.Equal(t, 1, repo.updates)
	assert.True(t, repo.stored["tpl-1"].IsPublished())

	_, err = session.SaveDraft(t.Context())
	require.ErrorIs(t, err, authoring.ErrCannotUnpublish)
	assert.Equal(t, 1, repo.updates)
}

func TestSession_PublishPersistenceFailure(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.fail = errors.New("connection reset")

	session := newSession(repo)
	title := "Intake"

	session.UpdateDetails(authoring.DetailChanges{Title: &title})
	session.AddField()

	before := session.Template()

	_, err := session.Publish(t.Context())
	require.Error(t, err)
	assert.True(t, persistence.IsPersistenceError(err))
	assert.False(t, authoring.IsStructuralError(err))
	assert.Equal(t, before, session.Template(), "in-memory template must be unchanged")

	repo.fail = nil

	published, err := session.Publish(t.Context())
	require.NoError(t, err)
	assert.True(t, published.IsPublished())
}

func TestNewCopySession(t *testing.T) {
	t.Parallel()

	source := &models.FormTemplate{
		ID:       "tpl-9",
		Title:    "Intake",
		Category: "ops",
		Status:   models.TemplateStatusPublished,
		Fields: []*models.FormField{
			{ID: "a", Kind: models.KindText, Label: "Name"},
			{ID: "b", Kind: models.KindSelect, Label: "Stage", Options: []string{"Seed"}},
		},
	}

	session := authoring.NewCopySession(newFakeRepo(), source, authoring.WithIDGenerator(sequentialIDs()))
	copied := session.Template()

	assert.Empty(t, copied.ID)
	assert.Equal(t, "Intake (Copy)", copied.Title)
	assert.Equal(t, "ops", copied.Category)
	assert.Equal(t, models.TemplateStatusDraft, copied.Status)
	assert.Equal(t, []string{"f1", "f2"}, ids(copied))
	assert.Equal(t, []string{"a", "b"}, ids(source))

	_, err := session.SaveDraft(t.Context())
	require.NoError(t, err)
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	direction, err := authoring.ParseDirection("UP")
	require.NoError(t, err)
	assert.Equal(t, authoring.Up, direction)

	_, err = authoring.ParseDirection("sideways")
	require.ErrorIs(t, err, authoring.ErrInvalidDirection)
}
