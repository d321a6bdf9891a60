package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/formflow/pkg/fields"
	"github.com/dukex/formflow/pkg/identity"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/dukex/formflow/pkg/persistence/file"
	"github.com/dukex/formflow/pkg/services"
	"github.com/dukex/formflow/pkg/testutil"
	uploadfile "github.com/dukex/formflow/pkg/uploads/file"
	"github.com/dukex/formflow/pkg/web"
	"github.com/dukex/formflow/pkg/wizard"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app         *fiber.App
	persistence persistence.Persistence
	token       string
}

func setupTestApp(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := file.NewPersistence(dir)
	registry := fields.NewRegistry(nil)
	uploader := uploadfile.NewStore(filepath.Join(dir, "uploads"), 1024)
	assembler := wizard.NewAssembler(logger, registry, uploader, store.SubmissionRepository(), nil, nil)

	handlers := web.NewAPIHandlers(
		services.NewTemplates(store, registry),
		services.NewBuilder(logger, store.TemplateRepository(), nil, time.Hour),
		services.NewWizard(logger, store.TemplateRepository(), registry, assembler, time.Hour),
		validator.New(validator.WithRequiredStructEnabled()),
		1024,
	)

	verifier := identity.NewVerifier("test-secret", time.Hour)

	token, err := verifier.Issue(models.Submitter{ID: "u1", Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: web.ErrorHandler})
	handlers.Routes(app, identity.Middleware(verifier))

	return &testServer{app: app, persistence: store, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()

	resp, err := s.app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func (s *testServer) publishedTemplate(t *testing.T) string {
	t.Helper()

	template := testutil.CreatePublishedTemplate(
		testutil.CreateTestField(testutil.WithID("name"), testutil.WithLabel("Name"), testutil.WithRequired()),
		testutil.Heading("docs", "Documents"),
		testutil.CreateTestField(testutil.WithID("resume"), testutil.WithKind(models.KindFile), testutil.WithLabel("Resume"), testutil.WithRequired()),
	)
	template.Title = "Application"

	id, err := s.persistence.TemplateRepository().Create(t.Context(), template)
	require.NoError(t, err)

	return id
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))

	return v
}

type problemBody struct {
	Type   string         `json:"type"`
	Status int            `json:"status"`
	Detail string         `json:"detail"`
	Issues []fields.Issue `json:"issues"`
	Fields []string       `json:"fields"`
}

func TestAPI_HealthCheck(t *testing.T) {
	t.Parallel()

	server := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	status, body := server.send(t, req)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", decode[map[string]any](t, body)["status"])
}

func TestAPI_RequiresToken(t *testing.T) {
	t.Parallel()

	server := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/templates", nil)
	status, body := server.send(t, req)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, http.StatusUnauthorized, decode[problemBody](t, body).Status)
}

func TestAPI_AuthoringFlow(t *testing.T) {
	t.Parallel()

	server := setupTestApp(t)

	status, body := server.do(t, http.MethodPost, "/authoring", web.DetailsRequest{})
	require.Equal(t, http.StatusCreated, status, string(body))

	created := decode[services.AuthoringView](t, body)
	base := "/authoring/" + created.SessionID

	status, body = server.do(t, http.MethodPost, base+"/publish", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "structural_error", decode[problemBody](t, body).Type)

	title := "Onboarding"
	status, _ = server.do(t, http.MethodPatch, base, web.DetailsRequest{Title: &title})
	require.Equal(t, http.StatusOK, status)

	status, body = server.do(t, http.MethodPost, base+"/fields", nil)
	require.Equal(t, http.StatusOK, status)

	view := decode[services.AuthoringView](t, body)
	require.Len(t, view.Template.Fields, 1)
	fieldID := view.Template.Fields[0].ID
	assert.Equal(t, fieldID, view.ActiveFieldID)

	status, body = server.do(t, http.MethodPut, base+"/fields/"+fieldID+"/kind", web.SetKindRequest{Kind: models.KindSelect})
	require.Equal(t, http.StatusOK, status, string(body))

	view = decode[services.AuthoringView](t, body)
	assert.Equal(t, []string{"Option 1", "Option 2", "Option 3"}, view.Template.Fields[0].Options)

	status, body = server.do(t, http.MethodPatch, base+"/fields/"+fieldID+"/options/1", web.OptionRequest{Label: "Remote"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "Remote", decode[services.AuthoringView](t, body).Template.Fields[0].Options[1])

	status, _ = server.do(t, http.MethodPost, base+"/fields/"+fieldID+"/move", web.MoveFieldRequest{Direction: "sideways"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = server.do(t, http.MethodPost, base+"/fields/"+fieldID+"/duplicate", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[services.AuthoringView](t, body).Template.Fields, 2)

	from, to := 0, 5
	status, body = server.do(t, http.MethodPost, base+"/reorder", web.ReorderRequest{From: &from, To: &to})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "structural_error", decode[problemBody](t, body).Type)

	status, body = server.do(t, http.MethodPost, base+"/publish", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	published := decode[services.AuthoringView](t, body)
	assert.NotEmpty(t, published.Template.ID)
	assert.Equal(t, models.TemplateStatusPublished, published.Template.Status)

	status, _ = server.do(t, http.MethodPost, base+"/draft", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = server.do(t, http.MethodGet, "/templates?status=published", nil)
	require.Equal(t, http.StatusOK, status)

	listed := decode[web.TemplatesResponse](t, body)
	require.Len(t, listed.Templates, 1)
	assert.Equal(t, "created_at", listed.SortBy)

	status, body = server.do(t, http.MethodGet, "/templates/"+published.Template.ID+"/schema", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "object", decode[map[string]any](t, body)["type"])

	status, _ = server.do(t, http.MethodGet, "/templates?sort_by=owner", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = server.do(t, http.MethodPost, "/templates/"+published.Template.ID+"/clone", nil)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Onboarding (Copy)", decode[services.AuthoringView](t, body).Template.Title)
}

func TestAPI_FillingFlow(t *testing.T) {
	t.Parallel()

	server := setupTestApp(t)
	templateID := server.publishedTemplate(t)

	status, body := server.do(t, http.MethodGet, "/templates/"+templateID+"/steps", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, body), 2)

	status, body = server.do(t, http.MethodPost, "/templates/"+templateID+"/sessions", nil)
	require.Equal(t, http.StatusCreated, status, string(body))

	started := decode[services.FillingView](t, body)
	base := "/sessions/" + started.SessionID

	status, body = server.do(t, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusBadRequest, status)

	problem := decode[problemBody](t, body)
	require.Len(t, problem.Issues, 1)
	assert.Equal(t, "name", problem.Issues[0].FieldID)

	status, _ = server.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = server.do(t, http.MethodPatch, base+"/values", web.SetValuesRequest{Values: map[string]any{"name": "Ada"}})
	require.Equal(t, http.StatusOK, status)

	status, body = server.do(t, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[services.FillingView](t, body).IsLastStep)

	status, _ = server.attach(t, base+"/files/resume", "cv.pdf", bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = server.attach(t, base+"/files/resume", "cv.pdf", []byte("%PDF-1.4 resume"))
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, []string{"resume"}, decode[services.FillingView](t, body).Pending)

	status, body = server.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, status, string(body))

	submission := decode[models.FormSubmission](t, body)
	assert.Equal(t, templateID, submission.FormID)
	assert.Equal(t, "u1", submission.SubmittedBy.ID)
	assert.Equal(t, models.SubmissionStatusPending, submission.Status)

	resume, ok := submission.Responses["resume"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cv.pdf", resume["fileName"])

	status, _ = server.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, body = server.do(t, http.MethodGet, "/submissions/"+submission.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ada", decode[models.FormSubmission](t, body).Responses["name"])

	status, body = server.do(t, http.MethodGet, "/templates/"+templateID+"/submissions", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.FormSubmission](t, body), 1)
}

func TestAPI_NotFound(t *testing.T) {
	t.Parallel()

	server := setupTestApp(t)

	paths := []string{
		"/templates/missing",
		"/templates/missing/steps",
		"/sessions/missing",
		"/authoring/missing",
		"/submissions/missing",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			status, body := server.do(t, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusNotFound, status)
			assert.Equal(t, "not_found", decode[problemBody](t, body).Type)
		})
	}
}

func TestAPI_StartRejectsDraft(t *testing.T) {
	t.Parallel()

	server := setupTestApp(t)

	id, err := server.persistence.TemplateRepository().Create(t.Context(), &models.FormTemplate{
		Title:  "Draft",
		Status: models.TemplateStatusDraft,
		Fields: []*models.FormField{{ID: "a", Kind: models.KindText}},
	})
	require.NoError(t, err)

	status, _ := server.do(t, http.MethodPost, "/templates/"+id+"/sessions", nil)
	assert.Equal(t, http.StatusConflict, status)
}

func (s *testServer) attach(t *testing.T, path, name string, data []byte) (int, []byte) {
	t.Helper()

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)

	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)

	return s.send(t, req)
}
