package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"study-reminder/internal/model"
	"study-reminder/internal/repository"
)

func validInput(subject string) TaskInput {
	return TaskInput{
		Subject:      subject,
		ReminderDate: testNow.Add(2 * time.Hour),
		Duration:     30,
		Priority:     model.PriorityHigh,
	}
}

func TestTaskService_AddTask(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	first, err := f.tasks.AddTask(ctx, validInput("Algebra"))
	require.NoError(t, err)
	second, err := f.tasks.AddTask(ctx, validInput("  Chemistry  "))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "Chemistry", second.Subject)
	for _, task := range []*model.Task{first, second} {
		assert.False(t, task.Completed)
		assert.Zero(t, task.Points)
		assert.Equal(t, testNow, task.CreatedAt)
		assert.Equal(t, model.RepeatNone, task.RepeatType)
		assert.NotNil(t, task.Attachments)
	}
	assert.Equal(t, []string{first.ID, second.ID}, f.notifier.scheduled)

	reloaded := NewTaskService(repository.NewTaskRepository(f.kv), repository.NewSettingsRepository(f.kv), nil)
	reloaded.Load(ctx)
	assert.Len(t, reloaded.Tasks(), 2)
}

func TestTaskService_AddTaskDefaults(t *testing.T) {
	f := newTaskFixture(t)

	task, err := f.tasks.AddTask(context.Background(), TaskInput{Subject: "Reading", Duration: 10})
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, model.RepeatNone, task.RepeatType)
	assert.Equal(t, testNow, task.ReminderDate)
}

func TestTaskService_AddTaskValidation(t *testing.T) {
	tests := []struct {
		name  string
		input TaskInput
	}{
		{"empty subject", TaskInput{Duration: 30}},
		{"blank subject", TaskInput{Subject: "   ", Duration: 30}},
		{"zero duration", TaskInput{Subject: "Physics"}},
		{"negative duration", TaskInput{Subject: "Physics", Duration: -5}},
		{"unknown priority", TaskInput{Subject: "Physics", Duration: 5, Priority: "urgent"}},
		{"unknown repeat", TaskInput{Subject: "Physics", Duration: 5, RepeatType: "yearly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTaskFixture(t)
			task, err := f.tasks.AddTask(context.Background(), tt.input)
			require.Error(t, err)
			assert.Nil(t, task)
			assert.True(t, model.IsDomainError(err, model.ErrCodeInvalid))
			assert.Empty(t, f.tasks.Tasks())
			assert.Empty(t, f.notifier.scheduled)
		})
	}
}

func TestTaskService_AddRepeatingTask(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	input := validInput("Spanish")
	input.RepeatType = model.RepeatDaily
	template, err := f.tasks.AddTask(ctx, input)
	require.NoError(t, err)

	tasks := f.tasks.Tasks()
	require.Len(t, tasks, 1+RecurrenceInstances)
	assert.Len(t, f.notifier.scheduled, 1+RecurrenceInstances)

	ids := map[string]bool{}
	for i, task := range tasks {
		assert.False(t, ids[task.ID])
		ids[task.ID] = true
		assert.Equal(t, input.ReminderDate.AddDate(0, 0, i), task.ReminderDate)
	}
	assert.Equal(t, template.ID, tasks[0].ID)

	stored, err := repository.NewTaskRepository(f.kv).List(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1+RecurrenceInstances)
}

func TestTaskService_CompleteToggleRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	task, err := f.tasks.AddTask(ctx, validInput("Geometry"))
	require.NoError(t, err)

	done, err := f.tasks.CompleteTask(ctx, task.ID, nil)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, 35, done.Points)
	assert.Equal(t, model.UserStats{Level: 1, Points: 35}, f.tasks.UserStats())
	assert.Equal(t, []string{task.ID}, f.notifier.cancelled)

	undone, err := f.tasks.CompleteTask(ctx, task.ID, nil)
	require.NoError(t, err)
	assert.False(t, undone.Completed)
	assert.Zero(t, undone.Points)
	assert.Equal(t, model.UserStats{Level: 1, Points: 0}, f.tasks.UserStats())

	stats, ok, err := repository.NewTaskRepository(f.kv).Stats(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, stats.Points)
}

func TestTaskService_MarkCompleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	task, err := f.tasks.AddTask(ctx, validInput("History"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		done, err := f.tasks.MarkComplete(ctx, task.ID, intPtr(60))
		require.NoError(t, err)
		assert.True(t, done.Completed)
		assert.Equal(t, 45, done.Points)
		assert.Equal(t, 60, *done.ActualDuration)
	}
	assert.Equal(t, 45, f.tasks.UserStats().Points)

	for i := 0; i < 2; i++ {
		undone, err := f.tasks.MarkIncomplete(ctx, task.ID)
		require.NoError(t, err)
		assert.False(t, undone.Completed)
	}
	assert.Equal(t, 0, f.tasks.UserStats().Points)
}

func TestTaskService_LevelFollowsPoints(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	for i := 0; i < 3; i++ {
		input := validInput("Essay")
		input.Duration = 120 // 10 + 15 + 40 = 65 points
		task, err := f.tasks.AddTask(ctx, input)
		require.NoError(t, err)
		_, err = f.tasks.MarkComplete(ctx, task.ID, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, model.UserStats{Level: 2, Points: 195}, f.tasks.UserStats())
}

func TestTaskService_ConcurrentCompletionAwardsOnce(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	task, err := f.tasks.AddTask(ctx, validInput("Biology"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.tasks.MarkComplete(ctx, task.ID, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 35, f.tasks.UserStats().Points)
}

func TestTaskService_UnknownIDsAreNoOps(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	subject := "x"
	updated, err := f.tasks.UpdateTask(ctx, "missing", TaskPatch{Subject: &subject})
	assert.NoError(t, err)
	assert.Nil(t, updated)

	done, err := f.tasks.CompleteTask(ctx, "missing", nil)
	assert.NoError(t, err)
	assert.Nil(t, done)

	assert.NoError(t, f.tasks.DeleteTask(ctx, "missing"))
	assert.Empty(t, f.notifier.cancelled)
}

func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	task, err := f.tasks.AddTask(ctx, validInput("Physics"))
	require.NoError(t, err)

	subject := "Quantum physics"
	later := task.ReminderDate.Add(24 * time.Hour)
	notes := "chapter 3"
	updated, err := f.tasks.UpdateTask(ctx, task.ID, TaskPatch{Subject: &subject, ReminderDate: &later, Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, subject, updated.Subject)
	assert.Equal(t, later, updated.ReminderDate)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, task.Duration, updated.Duration)
	assert.Equal(t, task.CreatedAt, updated.CreatedAt)
	assert.Equal(t, []string{task.ID}, f.notifier.cancelled)
	assert.Equal(t, []string{task.ID, task.ID}, f.notifier.scheduled)
}

func TestTaskService_UpdateTaskValidation(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	task, err := f.tasks.AddTask(ctx, validInput("Physics"))
	require.NoError(t, err)

	blank := "   "
	zero := 0
	priority := model.Priority("urgent")
	for _, patch := range []TaskPatch{
		{Subject: &blank},
		{Duration: &zero},
		{Priority: &priority},
	} {
		updated, err := f.tasks.UpdateTask(ctx, task.ID, patch)
		assert.Nil(t, updated)
		assert.True(t, model.IsDomainError(err, model.ErrCodeInvalid))
	}

	got, _ := f.tasks.Get(task.ID)
	assert.Equal(t, "Physics", got.Subject)
	assert.Equal(t, 30, got.Duration)
}

func TestTaskService_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	a, err := f.tasks.AddTask(ctx, validInput("A"))
	require.NoError(t, err)
	b, err := f.tasks.AddTask(ctx, validInput("B"))
	require.NoError(t, err)
	c, err := f.tasks.AddTask(ctx, validInput("C"))
	require.NoError(t, err)

	require.NoError(t, f.tasks.DeleteTask(ctx, a.ID))
	_, ok := f.tasks.Get(a.ID)
	assert.False(t, ok)
	assert.Equal(t, []string{a.ID}, f.notifier.cancelled)

	require.NoError(t, f.tasks.ClearAllTasks(ctx))
	assert.Empty(t, f.tasks.Tasks())
	assert.ElementsMatch(t, []string{a.ID, b.ID, c.ID}, f.notifier.cancelled)

	stored, err := repository.NewTaskRepository(f.kv).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestTaskService_DisplayOrderAndCalendar(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	add := func(subject string, at time.Time) *model.Task {
		in := validInput(subject)
		in.ReminderDate = at
		task, err := f.tasks.AddTask(ctx, in)
		require.NoError(t, err)
		return task
	}
	day := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	late := add("late", day.Add(20*time.Hour))
	early := add("early", day.Add(8*time.Hour))
	other := add("other day", day.AddDate(0, 0, 1).Add(9*time.Hour))
	_, err := f.tasks.MarkComplete(ctx, early.ID, nil)
	require.NoError(t, err)

	var order []string
	for _, task := range f.tasks.Tasks() {
		order = append(order, task.ID)
	}
	assert.Equal(t, []string{late.ID, other.ID, early.ID}, order)

	assert.Len(t, f.tasks.Filter(FilterPending), 2)
	assert.Len(t, f.tasks.Filter(FilterCompleted), 1)

	onDay := f.tasks.TasksOn(day.Add(12 * time.Hour))
	require.Len(t, onDay, 2)
	assert.Equal(t, late.ID, onDay[0].ID)
	assert.Equal(t, early.ID, onDay[1].ID)

	marks := f.tasks.MarkedDates(time.UTC)
	assert.Equal(t, DayMark{Total: 2, Completed: 1}, marks["2026-05-20"])
	assert.Equal(t, DayMark{Total: 1}, marks["2026-05-21"])
}

func TestTaskService_Attachments(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	task, err := f.tasks.AddTask(ctx, validInput("Art"))
	require.NoError(t, err)

	_, err = f.tasks.AddAttachment(ctx, task.ID, AttachmentInput{Name: "slides", Type: "video"})
	require.Error(t, err)

	link, err := f.tasks.AddAttachment(ctx, task.ID, AttachmentInput{Name: "slides", Type: model.AttachmentLink, Content: "https://example.com"})
	require.NoError(t, err)
	note, err := f.tasks.AddAttachment(ctx, task.ID, AttachmentInput{Name: "summary", Type: model.AttachmentNote, Content: "perspective"})
	require.NoError(t, err)

	got, _ := f.tasks.Get(task.ID)
	require.Len(t, got.Attachments, 2)
	assert.Equal(t, link.ID, got.Attachments[0].ID)

	require.NoError(t, f.tasks.RemoveAttachment(ctx, task.ID, link.ID))
	got, _ = f.tasks.Get(task.ID)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, note.ID, got.Attachments[0].ID)

	missing, err := f.tasks.AddAttachment(ctx, "missing", AttachmentInput{Name: "x", Type: model.AttachmentNote})
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTaskService_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)
	sessions := NewSessionService(repository.NewSessionRepository(f.kv), WithClock(f.clock.Now), WithIDGenerator(sequentialIDs("session")))
	f.tasks.AttachSessions(sessions)

	a, err := f.tasks.AddTask(ctx, validInput("Export me"))
	require.NoError(t, err)
	_, err = f.tasks.AddTask(ctx, validInput("And me"))
	require.NoError(t, err)
	_, err = f.tasks.MarkComplete(ctx, a.ID, intPtr(50))
	require.NoError(t, err)
	_, err = f.tasks.AddAttachment(ctx, a.ID, AttachmentInput{Name: "ref", Type: model.AttachmentLink, Content: "https://example.com"})
	require.NoError(t, err)
	started := sessions.StartSession(ctx, a.ID, "")
	f.clock.Advance(40 * time.Minute)
	sessions.EndSession(ctx, started.ID)

	before := f.tasks.Tasks()
	statsBefore := f.tasks.UserStats()
	sessionsBefore := sessions.Sessions()

	backup, err := f.tasks.ExportData(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.BackupVersion, backup.Version)

	require.NoError(t, f.tasks.ClearAllTasks(ctx))
	sessions.ReplaceSessions(ctx, nil)

	require.NoError(t, f.tasks.ImportData(ctx))
	assert.Equal(t, before, f.tasks.Tasks())
	assert.Equal(t, statsBefore, f.tasks.UserStats())
	assert.Equal(t, sessionsBefore, sessions.Sessions())
}

func TestTaskService_ImportIsFieldByField(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	task, err := f.tasks.AddTask(ctx, validInput("Keep stats"))
	require.NoError(t, err)
	_, err = f.tasks.MarkComplete(ctx, task.ID, nil)
	require.NoError(t, err)

	require.NoError(t, f.kv.Set(ctx, repository.KeyBackup, []byte(`{"tasks":[],"version":"1.0"}`)))
	require.NoError(t, f.tasks.ImportData(ctx))

	assert.Empty(t, f.tasks.Tasks())
	assert.Equal(t, 35, f.tasks.UserStats().Points)
}

func TestTaskService_ImportErrors(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	err := f.tasks.ImportData(ctx)
	assert.True(t, model.IsDomainError(err, model.ErrCodeNotFound))

	require.NoError(t, f.kv.Set(ctx, repository.KeyBackup, []byte(`{broken`)))
	err = f.tasks.ImportData(ctx)
	assert.True(t, model.IsDomainError(err, model.ErrCodeInvalid))
}

func TestTaskService_StorageFailureIsLoggedAndSwallowed(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.ErrorLevel)
	f := newTaskFixture(t, WithLogger(zap.New(core)))
	require.NoError(t, f.kv.Close())

	task, err := f.tasks.AddTask(ctx, validInput("Offline"))
	require.NoError(t, err)
	_, ok := f.tasks.Get(task.ID)
	assert.True(t, ok)

	entries := logs.FilterMessage("save tasks").All()
	require.NotEmpty(t, entries)
}

func TestTaskService_SharedStoreKeepsOtherWriters(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)
	clock := newTestClock(testNow)
	open := func(prefix string) *TaskService {
		return NewTaskService(repository.NewTaskRepository(kv), repository.NewSettingsRepository(kv), nil,
			WithClock(clock.Now), WithIDGenerator(sequentialIDs(prefix)))
	}
	daemon := open("daemon")
	cli := open("cli")

	input := validInput("Biology")
	input.Priority = model.PriorityMedium
	own, err := daemon.AddTask(ctx, input)
	require.NoError(t, err)

	cli.Load(ctx)
	added, err := cli.AddTask(ctx, validInput("Physics"))
	require.NoError(t, err)
	_, err = cli.MarkComplete(ctx, added.ID, nil)
	require.NoError(t, err)

	// the daemon has not reloaded since its own write
	done, err := daemon.MarkComplete(ctx, own.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, done.Points)
	assert.Len(t, daemon.Tasks(), 2)

	fresh := open("fresh")
	fresh.Load(ctx)
	tasks := fresh.Tasks()
	require.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.True(t, task.Completed, task.Subject)
	}
	assert.Equal(t, 65, fresh.UserStats().Points)
	assert.Equal(t, 1, fresh.UserStats().Level)

	// a task deleted elsewhere is not resurrected by the next write
	require.NoError(t, cli.DeleteTask(ctx, own.ID))
	_, err = daemon.AddTask(ctx, validInput("Chemistry"))
	require.NoError(t, err)
	fresh.Load(ctx)
	_, ok := fresh.Get(own.ID)
	assert.False(t, ok)
	assert.Len(t, fresh.Tasks(), 2)
}

func TestTaskService_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	var kinds []TaskEventKind
	f.tasks.Subscribe(func(_ context.Context, ev TaskEvent) {
		kinds = append(kinds, ev.Kind)
	})

	task, err := f.tasks.AddTask(ctx, validInput("Events"))
	require.NoError(t, err)
	_, err = f.tasks.CompleteTask(ctx, task.ID, nil)
	require.NoError(t, err)
	_, err = f.tasks.CompleteTask(ctx, task.ID, nil)
	require.NoError(t, err)
	require.NoError(t, f.tasks.DeleteTask(ctx, task.ID))

	assert.Equal(t, []TaskEventKind{TaskAdded, TaskCompleted, TaskUncompleted, TaskDeleted}, kinds)
}

func TestTaskService_StatsAndStreak(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	task, err := f.tasks.AddTask(ctx, validInput("Streak"))
	require.NoError(t, err)
	assert.Zero(t, f.tasks.Streak())

	_, err = f.tasks.MarkComplete(ctx, task.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.tasks.Streak())

	f.clock.Advance(48 * time.Hour)
	assert.Zero(t, f.tasks.Streak())

	stats := f.tasks.Stats()
	assert.Equal(t, 1, stats.CompletedTasks)
	assert.Equal(t, 35, stats.TotalPoints)
}

func TestParseTaskFilter(t *testing.T) {
	for raw, want := range map[string]TaskFilter{
		"":          FilterAll,
		"all":       FilterAll,
		" Pending ": FilterPending,
		"completed": FilterCompleted,
	} {
		got, err := ParseTaskFilter(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseTaskFilter("done")
	assert.True(t, model.IsDomainError(err, model.ErrCodeInvalid))
}
