package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"study-reminder/internal/model"
	"study-reminder/internal/repository"
)

// DefaultCategories seeds the registry on first run.
var DefaultCategories = []CategoryInput{
	{Name: "Matemáticas", Color: "#3b82f6", Icon: "calculator"},
	{Name: "Ciencias", Color: "#10b981", Icon: "flask"},
	{Name: "Historia", Color: "#f59e0b", Icon: "scroll"},
	{Name: "Literatura", Color: "#8b5cf6", Icon: "book"},
	{Name: "Idiomas", Color: "#ef4444", Icon: "globe"},
	{Name: "Arte", Color: "#ec4899", Icon: "palette"},
}

const defaultCategoryColor = "#6366f1"

// CategoryInput represents data required to create a category.
type CategoryInput struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// CategoryPatch lists editable category fields; nil means unchanged.
type CategoryPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

// CategoryService provides helpers around categories.
type CategoryService struct {
	base
	repo *repository.CategoryRepository

	mu         sync.Mutex
	categories []model.Category
}

func NewCategoryService(repo *repository.CategoryRepository, opts ...Option) *CategoryService {
	return &CategoryService{base: newBase(opts), repo: repo}
}

// Load reads stored categories, seeding and persisting the defaults when none were ever saved.
func (s *CategoryService) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reloadLocked(ctx) {
		return
	}
	now := s.now()
	seeded := make([]model.Category, 0, len(DefaultCategories))
	for _, c := range DefaultCategories {
		seeded = append(seeded, model.Category{
			ID:        s.newID(),
			Name:      c.Name,
			Color:     c.Color,
			Icon:      c.Icon,
			CreatedAt: now,
		})
	}
	s.categories = seeded
	s.persistLocked(ctx)
	s.logger.Info("seeded default categories", zap.Int("count", len(seeded)))
}

// reloadLocked re-reads the stored categories. It reports false only when
// storage was readable and the document has never been written.
func (s *CategoryService) reloadLocked(ctx context.Context) bool {
	categories, ok, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("load categories", zap.Error(err))
		return true
	}
	if ok {
		s.categories = categories
	}
	return ok
}

func (s *CategoryService) List() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Category(nil), s.categories...)
}

func (s *CategoryService) Add(ctx context.Context, input CategoryInput) (*model.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput("category", input); err != nil {
		return nil, err
	}
	if input.Color == "" {
		input.Color = defaultCategoryColor
	}
	category := model.Category{
		ID:        s.newID(),
		Name:      input.Name,
		Color:     input.Color,
		Icon:      input.Icon,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
	s.categories = append(s.categories, category)
	s.persistLocked(ctx)
	return &category, nil
}

// Update merges patch into the category; unknown ids are ignored.
func (s *CategoryService) Update(ctx context.Context, id string, patch CategoryPatch) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
	for i := range s.categories {
		c := &s.categories[i]
		if c.ID != id {
			continue
		}
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Color != nil {
			c.Color = *patch.Color
		}
		if patch.Icon != nil {
			c.Icon = *patch.Icon
		}
		s.persistLocked(ctx)
		out := *c
		return &out, nil
	}
	return nil, nil
}

// Delete removes the category unconditionally. Tasks keep their now-dangling
// categoryId; callers that want to block the delete check InUse first.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
	kept := s.categories[:0]
	for _, c := range s.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.categories = kept
	s.persistLocked(ctx)
	return nil
}

// InUse reports how many tasks reference the category.
func InUse(categoryID string, tasks []model.Task) int {
	n := 0
	for _, t := range tasks {
		if t.CategoryID == categoryID {
			n++
		}
	}
	return n
}

func (s *CategoryService) persistLocked(ctx context.Context) {
	if err := s.repo.SaveAll(ctx, s.categories); err != nil {
		s.logger.Error("save categories", zap.Error(err))
	}
}
