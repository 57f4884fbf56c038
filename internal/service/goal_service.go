package service

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"study-reminder/internal/model"
	"study-reminder/internal/repository"
)

// GoalInput represents data required to create a goal.
type GoalInput struct {
	Title       string             `json:"title" validate:"required"`
	Description string             `json:"description"`
	TargetValue int                `json:"targetValue" validate:"gt=0"`
	Type        model.GoalType     `json:"type" validate:"omitempty,oneof=daily weekly monthly"`
	Category    model.GoalCategory `json:"category" validate:"omitempty,oneof=tasks time streak"`
	Deadline    *time.Time         `json:"deadline"`
	Reward      string             `json:"reward"`
}

// TaskLister is the read side of the task store the goal tracker depends on.
type TaskLister interface {
	Tasks() []model.Task
}

// GoalService keeps user goals and recomputes their progress from task data.
type GoalService struct {
	base
	repo  *repository.GoalRepository
	tasks TaskLister

	mu    sync.Mutex
	goals []model.Goal
}

func NewGoalService(repo *repository.GoalRepository, tasks TaskLister, opts ...Option) *GoalService {
	return &GoalService{base: newBase(opts), repo: repo, tasks: tasks}
}

func (s *GoalService) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
}

// reloadLocked re-reads the stored goals before a mutation; on failure the cache is kept.
func (s *GoalService) reloadLocked(ctx context.Context) {
	goals, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("load goals", zap.Error(err))
		return
	}
	s.goals = goals
}

// Goals returns a copy of the goal list.
func (s *GoalService) Goals() []model.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Goal(nil), s.goals...)
}

// AddGoal validates and stores a new goal. A missing deadline defaults to
// one day, one week or one month from now depending on the goal type.
func (s *GoalService) AddGoal(ctx context.Context, input GoalInput) (*model.Goal, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateInput("goal", input); err != nil {
		return nil, err
	}
	if input.Type == "" {
		input.Type = model.GoalDaily
	}
	if input.Category == "" {
		input.Category = model.GoalCategoryTasks
	}

	now := s.now()
	deadline := DefaultDeadline(input.Type, now)
	if input.Deadline != nil && !input.Deadline.IsZero() {
		deadline = *input.Deadline
	}

	goal := model.Goal{
		ID:          s.newID(),
		Title:       input.Title,
		Description: input.Description,
		TargetValue: input.TargetValue,
		Type:        input.Type,
		Category:    input.Category,
		CreatedAt:   now,
		Deadline:    deadline,
		Reward:      input.Reward,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
	s.goals = append(s.goals, goal)
	s.persistLocked(ctx)
	return &goal, nil
}

// DefaultDeadline returns the deadline used when a goal is created without one.
func DefaultDeadline(t model.GoalType, now time.Time) time.Time {
	switch t {
	case model.GoalWeekly:
		return now.AddDate(0, 0, 7)
	case model.GoalMonthly:
		return now.AddDate(0, 1, 0)
	default:
		return now.AddDate(0, 0, 1)
	}
}

// UpdateGoalProgress sets the current value. Reaching the target latches
// completed; a later lower value never clears it.
func (s *GoalService) UpdateGoalProgress(ctx context.Context, id string, value int) (*model.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
	for i := range s.goals {
		if s.goals[i].ID != id {
			continue
		}
		applyProgress(&s.goals[i], value)
		s.persistLocked(ctx)
		out := s.goals[i]
		return &out, nil
	}
	return nil, nil
}

func applyProgress(goal *model.Goal, value int) bool {
	changed := goal.CurrentValue != value
	goal.CurrentValue = value
	if value >= goal.TargetValue && !goal.Completed {
		goal.Completed = true
		changed = true
	}
	return changed
}

// DeleteGoal removes the goal unconditionally.
func (s *GoalService) DeleteGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
	kept := s.goals[:0]
	for _, g := range s.goals {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	s.goals = kept
	s.persistLocked(ctx)
	return nil
}

// CompleteGoal sets the completed flag regardless of progress.
func (s *GoalService) CompleteGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
	for i := range s.goals {
		if s.goals[i].ID == id {
			s.goals[i].Completed = true
		}
	}
	s.persistLocked(ctx)
	return nil
}

// ProgressValue computes the aggregate that feeds goal's category.
func ProgressValue(goal model.Goal, tasks []model.Task, now time.Time) int {
	switch goal.Category {
	case model.GoalCategoryTasks:
		n := 0
		for _, t := range tasks {
			if t.Completed {
				n++
			}
		}
		return n
	case model.GoalCategoryTime:
		minutes := 0
		for _, t := range tasks {
			if t.Completed {
				minutes += t.EffectiveDuration()
			}
		}
		return minutes
	case model.GoalCategoryStreak:
		return CurrentStreak(tasks, now)
	default:
		return 0
	}
}

// ProgressPercent returns progress toward the target, capped at 100.
func ProgressPercent(goal model.Goal, value int) float64 {
	if goal.TargetValue <= 0 {
		return 0
	}
	return math.Min(float64(value)/float64(goal.TargetValue)*100, 100)
}

// Refresh recomputes every goal from the current task list and persists once
// if anything moved.
func (s *GoalService) Refresh(ctx context.Context) {
	if s.tasks == nil {
		return
	}
	tasks := s.tasks.Tasks()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
	changed := false
	for i := range s.goals {
		if applyProgress(&s.goals[i], ProgressValue(s.goals[i], tasks, now)) {
			changed = true
		}
	}
	if changed {
		s.persistLocked(ctx)
	}
}

// HandleTaskEvent is subscribed to the task store so progress never goes stale.
func (s *GoalService) HandleTaskEvent(ctx context.Context, ev TaskEvent) {
	s.logger.Debug("refresh goals", zap.String("event", string(ev.Kind)))
	s.Refresh(ctx)
}

func (s *GoalService) persistLocked(ctx context.Context) {
	if err := s.repo.SaveAll(ctx, s.goals); err != nil {
		s.logger.Error("save goals", zap.Error(err))
	}
}
