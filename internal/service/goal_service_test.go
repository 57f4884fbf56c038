package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-reminder/internal/model"
	"study-reminder/internal/repository"
)

type staticTasks []model.Task

func (s staticTasks) Tasks() []model.Task { return s }

func newGoalService(t *testing.T, tasks TaskLister) (*GoalService, repository.KV) {
	t.Helper()
	kv := newTestKV(t)
	clock := newTestClock(testNow)
	return NewGoalService(repository.NewGoalRepository(kv), tasks, WithClock(clock.Now), WithIDGenerator(sequentialIDs("goal"))), kv
}

func TestGoalService_AddGoalDefaults(t *testing.T) {
	ctx := context.Background()
	svc, kv := newGoalService(t, nil)

	tests := []struct {
		goalType model.GoalType
		deadline time.Time
	}{
		{model.GoalDaily, testNow.AddDate(0, 0, 1)},
		{model.GoalWeekly, testNow.AddDate(0, 0, 7)},
		{model.GoalMonthly, testNow.AddDate(0, 1, 0)},
		{"", testNow.AddDate(0, 0, 1)},
	}
	for _, tt := range tests {
		goal, err := svc.AddGoal(ctx, GoalInput{Title: "Read", TargetValue: 3, Type: tt.goalType})
		require.NoError(t, err)
		assert.Equal(t, tt.deadline, goal.Deadline, "type %q", tt.goalType)
		assert.Zero(t, goal.CurrentValue)
		assert.False(t, goal.Completed)
		assert.Equal(t, model.GoalCategoryTasks, goal.Category)
	}

	explicit := testNow.Add(72 * time.Hour)
	goal, err := svc.AddGoal(ctx, GoalInput{Title: "Custom", TargetValue: 1, Deadline: &explicit})
	require.NoError(t, err)
	assert.Equal(t, explicit, goal.Deadline)

	stored, err := repository.NewGoalRepository(kv).List(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 5)
}

func TestGoalService_AddGoalValidation(t *testing.T) {
	svc, _ := newGoalService(t, nil)

	for _, in := range []GoalInput{
		{Title: "  ", TargetValue: 3},
		{Title: "Zero target"},
		{Title: "Bad category", TargetValue: 1, Category: "pages"},
	} {
		goal, err := svc.AddGoal(context.Background(), in)
		assert.Nil(t, goal)
		assert.True(t, model.IsDomainError(err, model.ErrCodeInvalid), "input %+v", in)
	}
	assert.Empty(t, svc.Goals())
}

func TestGoalService_CompletionLatches(t *testing.T) {
	ctx := context.Background()
	svc, _ := newGoalService(t, nil)

	goal, err := svc.AddGoal(ctx, GoalInput{Title: "Five tasks", TargetValue: 5})
	require.NoError(t, err)

	updated, err := svc.UpdateGoalProgress(ctx, goal.ID, 4)
	require.NoError(t, err)
	assert.False(t, updated.Completed)

	updated, err = svc.UpdateGoalProgress(ctx, goal.ID, 5)
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	updated, err = svc.UpdateGoalProgress(ctx, goal.ID, 2)
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, 2, updated.CurrentValue)

	missing, err := svc.UpdateGoalProgress(ctx, "missing", 10)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGoalService_DeleteAndComplete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newGoalService(t, nil)

	a, err := svc.AddGoal(ctx, GoalInput{Title: "A", TargetValue: 10})
	require.NoError(t, err)
	b, err := svc.AddGoal(ctx, GoalInput{Title: "B", TargetValue: 10})
	require.NoError(t, err)

	require.NoError(t, svc.CompleteGoal(ctx, a.ID))
	require.NoError(t, svc.DeleteGoal(ctx, b.ID))

	goals := svc.Goals()
	require.Len(t, goals, 1)
	assert.Equal(t, a.ID, goals[0].ID)
	assert.True(t, goals[0].Completed)
	assert.Zero(t, goals[0].CurrentValue)
}

func TestProgressValue(t *testing.T) {
	tasks := []model.Task{
		{Completed: true, Duration: 30, CreatedAt: testNow},
		{Completed: true, Duration: 30, ActualDuration: intPtr(45), CreatedAt: testNow.AddDate(0, 0, -1)},
		{Completed: false, Duration: 90, CreatedAt: testNow},
	}

	assert.Equal(t, 2, ProgressValue(model.Goal{Category: model.GoalCategoryTasks}, tasks, testNow))
	assert.Equal(t, 75, ProgressValue(model.Goal{Category: model.GoalCategoryTime}, tasks, testNow))
	assert.Equal(t, 2, ProgressValue(model.Goal{Category: model.GoalCategoryStreak}, tasks, testNow))
	assert.Zero(t, ProgressValue(model.Goal{Category: "pages"}, tasks, testNow))
}

func TestProgressPercent(t *testing.T) {
	goal := model.Goal{TargetValue: 4}
	assert.InDelta(t, 50, ProgressPercent(goal, 2), 0.001)
	assert.InDelta(t, 100, ProgressPercent(goal, 9), 0.001)
	assert.Zero(t, ProgressPercent(model.Goal{}, 3))
}

func TestGoalService_RefreshFollowsTaskEvents(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)
	goals := NewGoalService(repository.NewGoalRepository(f.kv), f.tasks, WithClock(f.clock.Now), WithIDGenerator(sequentialIDs("goal")))
	f.tasks.Subscribe(goals.HandleTaskEvent)

	goal, err := goals.AddGoal(ctx, GoalInput{Title: "Two tasks", TargetValue: 2})
	require.NoError(t, err)
	timeGoal, err := goals.AddGoal(ctx, GoalInput{Title: "Hour", TargetValue: 60, Category: model.GoalCategoryTime})
	require.NoError(t, err)

	first, err := f.tasks.AddTask(ctx, validInput("One"))
	require.NoError(t, err)
	second, err := f.tasks.AddTask(ctx, validInput("Two"))
	require.NoError(t, err)

	_, err = f.tasks.MarkComplete(ctx, first.ID, nil)
	require.NoError(t, err)
	byID := goalsByID(goals.Goals())
	assert.Equal(t, 1, byID[goal.ID].CurrentValue)
	assert.False(t, byID[goal.ID].Completed)
	assert.Equal(t, 30, byID[timeGoal.ID].CurrentValue)

	_, err = f.tasks.MarkComplete(ctx, second.ID, nil)
	require.NoError(t, err)
	byID = goalsByID(goals.Goals())
	assert.Equal(t, 2, byID[goal.ID].CurrentValue)
	assert.True(t, byID[goal.ID].Completed)
	assert.True(t, byID[timeGoal.ID].Completed)

	require.NoError(t, f.tasks.DeleteTask(ctx, second.ID))
	byID = goalsByID(goals.Goals())
	assert.Equal(t, 1, byID[goal.ID].CurrentValue)
	assert.True(t, byID[goal.ID].Completed)
}

func TestGoalService_RefreshWithStaticTasks(t *testing.T) {
	ctx := context.Background()
	svc, kv := newGoalService(t, staticTasks{{Completed: true, CreatedAt: testNow}})

	goal, err := svc.AddGoal(ctx, GoalInput{Title: "Streak", TargetValue: 1, Category: model.GoalCategoryStreak})
	require.NoError(t, err)
	svc.Refresh(ctx)

	reloaded := NewGoalService(repository.NewGoalRepository(kv), nil)
	reloaded.Load(ctx)
	goals := reloaded.Goals()
	require.Len(t, goals, 1)
	assert.Equal(t, goal.ID, goals[0].ID)
	assert.Equal(t, 1, goals[0].CurrentValue)
	assert.True(t, goals[0].Completed)
}

func goalsByID(goals []model.Goal) map[string]model.Goal {
	out := make(map[string]model.Goal, len(goals))
	for _, g := range goals {
		out[g.ID] = g
	}
	return out
}

func TestGoalService_SharedStoreKeepsOtherWriters(t *testing.T) {
	ctx := context.Background()
	first, kv := newGoalService(t, nil)
	second := NewGoalService(repository.NewGoalRepository(kv), staticTasks{
		{ID: "t1", Completed: true, Duration: 20},
	}, WithClock(newTestClock(testNow).Now), WithIDGenerator(sequentialIDs("other")))
	second.Load(ctx)

	_, err := first.AddGoal(ctx, GoalInput{Title: "Read", TargetValue: 5})
	require.NoError(t, err)
	_, err = second.AddGoal(ctx, GoalInput{Title: "Practice", TargetValue: 1})
	require.NoError(t, err)
	second.Refresh(ctx)

	reloaded := NewGoalService(repository.NewGoalRepository(kv), nil)
	reloaded.Load(ctx)
	goals := reloaded.Goals()
	require.Len(t, goals, 2)
	assert.Equal(t, "Read", goals[0].Title)
	assert.Equal(t, 1, goals[0].CurrentValue)
	assert.True(t, goals[1].Completed)
}
