package repository

import (
	"context"

	"study-reminder/internal/model"
)

// TaskRepository persists the task list and the points accumulator.
type TaskRepository struct {
	kv KV
}

func NewTaskRepository(kv KV) *TaskRepository {
	return &TaskRepository{kv: kv}
}

// List returns the stored tasks; a missing document yields an empty list.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	tasks, _, err := loadJSON[[]model.Task](ctx, r.kv, KeyTasks)
	return tasks, err
}

// SaveAll replaces the whole task document.
func (r *TaskRepository) SaveAll(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return saveJSON(ctx, r.kv, KeyTasks, tasks)
}

func (r *TaskRepository) Stats(ctx context.Context) (model.UserStats, bool, error) {
	return loadJSON[model.UserStats](ctx, r.kv, KeyUserStats)
}

func (r *TaskRepository) SaveStats(ctx context.Context, stats model.UserStats) error {
	return saveJSON(ctx, r.kv, KeyUserStats, stats)
}
