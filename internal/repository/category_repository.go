package repository

import (
	"context"

	"study-reminder/internal/model"
)

// CategoryRepository manages task categories.
type CategoryRepository struct {
	kv KV
}

func NewCategoryRepository(kv KV) *CategoryRepository {
	return &CategoryRepository{kv: kv}
}

// List returns the stored categories and whether the document exists at all.
// Seeding depends on telling "never saved" apart from "saved empty".
func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, bool, error) {
	return loadJSON[[]model.Category](ctx, r.kv, KeyCategories)
}

func (r *CategoryRepository) SaveAll(ctx context.Context, categories []model.Category) error {
	if categories == nil {
		categories = []model.Category{}
	}
	return saveJSON(ctx, r.kv, KeyCategories, categories)
}
