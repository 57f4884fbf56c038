package repository

import (
	"context"

	"study-reminder/internal/model"
)

// GoalRepository stores user goals.
type GoalRepository struct {
	kv KV
}

func NewGoalRepository(kv KV) *GoalRepository {
	return &GoalRepository{kv: kv}
}

func (r *GoalRepository) List(ctx context.Context) ([]model.Goal, error) {
	goals, _, err := loadJSON[[]model.Goal](ctx, r.kv, KeyGoals)
	return goals, err
}

func (r *GoalRepository) SaveAll(ctx context.Context, goals []model.Goal) error {
	if goals == nil {
		goals = []model.Goal{}
	}
	return saveJSON(ctx, r.kv, KeyGoals, goals)
}
