package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/google/uuid"
)

const templatesDir = "templates"

// TemplateRepository handles template-related file operations.
type TemplateRepository struct {
	root string // File system root for storing templates
	mu   sync.RWMutex
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(root string) *TemplateRepository {
	return &TemplateRepository{root: root}
}

// Create stores a new template and returns its id. A template without an id gets a fresh one.
func (tr *TemplateRepository) Create(_ context.Context, template *models.FormTemplate) (string, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	id := template.ID
	if id == "" {
		id = uuid.New().String()
	}

	stored := template.Clone()
	stored.ID = id

	if err := tr.write(stored); err != nil {
		return "", persistence.NewTemplateError("Create", id, err)
	}

	return id, nil
}

// Update replaces the stored template with the given id.
func (tr *TemplateRepository) Update(_ context.Context, id string, template *models.FormTemplate) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	existing, err := tr.read(id)
	if err != nil {
		return persistence.NewTemplateError("Update", id, err)
	}

	if existing == nil {
		return persistence.NewTemplateError("Update", id, persistence.ErrTemplateNotFound)
	}

	stored := template.Clone()
	stored.ID = id

	if err := tr.write(stored); err != nil {
		return persistence.NewTemplateError("Update", id, err)
	}

	return nil
}

// GetByID retrieves a template by its ID from the file system.
func (tr *TemplateRepository) GetByID(_ context.Context, id string) (*models.FormTemplate, error) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	return tr.read(id)
}

// List returns filtered and sorted templates with in-memory operations.
func (tr *TemplateRepository) List(_ context.Context, opts persistence.ListTemplatesOptions) ([]*models.FormTemplate, error) {
	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	// Validate sort parameters against allowlist
	if !slices.Contains(persistence.SortFields, opts.SortBy) {
		return nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	tr.mu.RLock()
	defer tr.mu.RUnlock()

	root := os.DirFS(tr.root + "/" + templatesDir)

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list template files: %w", err)
	}

	templates := make([]*models.FormTemplate, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		template, err := tr.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, fmt.Errorf("failed to load template %s: %w", file, err)
		}

		if template == nil {
			continue
		}

		if opts.Status != nil && template.Status != *opts.Status {
			continue
		}

		if opts.Category != "" && template.Category != opts.Category {
			continue
		}

		templates = append(templates, template)
	}

	sortTemplates(templates, opts.SortBy, opts.SortOrder)

	return templates, nil
}

// Delete removes a template from the file system.
func (tr *TemplateRepository) Delete(_ context.Context, id string) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	filePath, err := documentPath(tr.root, templatesDir, id)
	if err != nil {
		return persistence.NewTemplateError("Delete", id, err)
	}

	err = os.Remove(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewTemplateError("Delete", id, persistence.ErrTemplateNotFound)
		}

		return persistence.NewTemplateError("Delete", id, err)
	}

	return nil
}

func (tr *TemplateRepository) read(id string) (*models.FormTemplate, error) {
	filePath, err := documentPath(tr.root, templatesDir, id)
	if err != nil {
		return nil, err
	}

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch template %s: %w", id, err)
	}

	var template models.FormTemplate

	err = json.Unmarshal(body, &template)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal template %s: %w", id, err)
	}

	return &template, nil
}

func (tr *TemplateRepository) write(template *models.FormTemplate) error {
	data, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal template %s: %w", template.ID, err)
	}

	return writeDocument(tr.root, templatesDir, template.ID, data)
}

// sortTemplates sorts templates in-place based on the specified field and order.
func sortTemplates(templates []*models.FormTemplate, sortBy, sortOrder string) {
	sort.SliceStable(templates, func(i, j int) bool {
		a, b := templates[i], templates[j]
		if sortOrder == "desc" {
			a, b = b, a
		}

		switch sortBy {
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "title":
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}
