package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"study-reminder/internal/model"
	"study-reminder/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Subject      string           `json:"subject" validate:"required"`
	ReminderDate time.Time        `json:"reminderDate"`
	Duration     int              `json:"duration" validate:"gt=0"`
	Priority     model.Priority   `json:"priority" validate:"omitempty,oneof=high medium low"`
	Notes        string           `json:"notes"`
	RepeatType   model.RepeatType `json:"repeatType" validate:"omitempty,oneof=none daily weekly monthly"`
	CategoryID   string           `json:"categoryId"`
}

// TaskPatch lists the editable task fields; nil means unchanged. Completion and
// points only move through MarkComplete/MarkIncomplete.
type TaskPatch struct {
	Subject        *string           `json:"subject" validate:"omitnil,required"`
	ReminderDate   *time.Time        `json:"reminderDate"`
	Duration       *int              `json:"duration" validate:"omitnil,gt=0"`
	Priority       *model.Priority   `json:"priority" validate:"omitnil,oneof=high medium low"`
	Notes          *string           `json:"notes"`
	RepeatType     *model.RepeatType `json:"repeatType" validate:"omitnil,oneof=none daily weekly monthly"`
	CategoryID     *string           `json:"categoryId"`
	ActualDuration *int              `json:"actualDuration" validate:"omitnil,gte=0"`
}

// AttachmentInput represents data required to attach a link or note to a task.
type AttachmentInput struct {
	Name    string               `json:"name" validate:"required"`
	Type    model.AttachmentType `json:"type" validate:"required,oneof=link note"`
	Content string               `json:"content"`
}

// TaskFilter selects tasks by completion state.
type TaskFilter string

const (
	FilterAll       TaskFilter = "all"
	FilterPending   TaskFilter = "pending"
	FilterCompleted TaskFilter = "completed"
)

// ParseTaskFilter accepts all, pending or completed; empty means all.
func ParseTaskFilter(raw string) (TaskFilter, error) {
	switch f := TaskFilter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPending, FilterCompleted:
		return f, nil
	default:
		return "", model.NewError(model.ErrCodeInvalid, fmt.Sprintf("unknown task filter %q, expected all, pending or completed", raw))
	}
}

// DayMark summarizes one calendar day.
type DayMark struct {
	Total     int
	Completed int
}

// SessionBackup is the part of the session tracker the backup bundle needs.
type SessionBackup interface {
	Sessions() []model.StudySession
	ReplaceSessions(ctx context.Context, sessions []model.StudySession)
}

// TaskService owns the task list and the points accumulator.
type TaskService struct {
	base
	repo     *repository.TaskRepository
	settings *repository.SettingsRepository
	notifier Notifier
	sessions SessionBackup

	mu    sync.Mutex
	byID  map[string]*model.Task
	order []string
	stats model.UserStats
	subs  []TaskSubscriber
}

func NewTaskService(repo *repository.TaskRepository, settings *repository.SettingsRepository, notifier Notifier, opts ...Option) *TaskService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &TaskService{
		base:     newBase(opts),
		repo:     repo,
		settings: settings,
		notifier: notifier,
		byID:     make(map[string]*model.Task),
		stats:    model.UserStats{Level: 1},
	}
}

// AttachSessions wires the session tracker into export and import.
func (s *TaskService) AttachSessions(sessions SessionBackup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = sessions
}

// Subscribe registers fn for every subsequent task event.
func (s *TaskService) Subscribe(fn TaskSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Load reads tasks and stats from storage. On failure the current state is kept.
func (s *TaskService) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
}

// reloadLocked replaces the cached list and stats with the stored documents.
// Every mutation starts with it, so writes from another process sharing the
// store are never overwritten by a stale cache.
func (s *TaskService) reloadLocked(ctx context.Context) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("load tasks", zap.Error(err))
	} else {
		s.replaceLocked(tasks)
	}
	stats, ok, err := s.repo.Stats(ctx)
	switch {
	case err != nil:
		s.logger.Error("load user stats", zap.Error(err))
	case ok:
		s.stats = model.UserStats{Points: stats.Points, Level: CalculateLevel(stats.Points)}
	}
}

// AddTask validates input, stores a new pending task and, for repeating tasks,
// ten future instances in a second batch write.
func (s *TaskService) AddTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	input.Subject = strings.TrimSpace(input.Subject)
	if err := validateInput("task", input); err != nil {
		return nil, err
	}
	if input.Priority == "" {
		input.Priority = model.PriorityMedium
	}
	if input.RepeatType == "" {
		input.RepeatType = model.RepeatNone
	}

	now := s.now()
	if input.ReminderDate.IsZero() {
		input.ReminderDate = now
	}

	task := model.Task{
		ID:           s.newID(),
		Subject:      input.Subject,
		ReminderDate: input.ReminderDate,
		Duration:     input.Duration,
		Priority:     input.Priority,
		Notes:        input.Notes,
		RepeatType:   input.RepeatType,
		CategoryID:   input.CategoryID,
		CreatedAt:    now,
		Attachments:  []model.Attachment{},
	}

	s.mu.Lock()
	s.reloadLocked(ctx)
	s.insertLocked(task)
	s.persistTasksLocked(ctx)

	armed := []model.Task{task}
	if instances := ExpandRecurrence(task, s.newID); len(instances) > 0 {
		for _, instance := range instances {
			s.insertLocked(instance)
		}
		s.persistTasksLocked(ctx)
		armed = append(armed, instances...)
	}
	s.mu.Unlock()

	for _, t := range armed {
		s.notifier.Schedule(ctx, t)
	}
	s.logger.Debug("task added",
		zap.String("task_id", task.ID),
		zap.String("repeat", string(task.RepeatType)),
		zap.Int("instances", len(armed)-1))
	s.publish(ctx, TaskEvent{Kind: TaskAdded, TaskID: task.ID})

	out := task.Clone()
	return &out, nil
}

// UpdateTask merges patch into the task. Unknown ids are a silent no-op (nil, nil).
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*model.Task, error) {
	if patch.Subject != nil {
		subject := strings.TrimSpace(*patch.Subject)
		patch.Subject = &subject
	}
	if err := validateInput("task", patch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.reloadLocked(ctx)
	task, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return nil, nil
	}
	rearm := patch.ReminderDate != nil && !patch.ReminderDate.Equal(task.ReminderDate)
	applyPatch(task, patch)
	s.persistTasksLocked(ctx)
	out := task.Clone()
	s.mu.Unlock()

	if rearm && !out.Completed {
		s.notifier.Cancel(ctx, out.ID)
		s.notifier.Schedule(ctx, out)
	}
	s.publish(ctx, TaskEvent{Kind: TaskUpdated, TaskID: id})
	return &out, nil
}

func applyPatch(task *model.Task, patch TaskPatch) {
	if patch.Subject != nil {
		task.Subject = *patch.Subject
	}
	if patch.ReminderDate != nil {
		task.ReminderDate = *patch.ReminderDate
	}
	if patch.Duration != nil {
		task.Duration = *patch.Duration
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Notes != nil {
		task.Notes = *patch.Notes
	}
	if patch.RepeatType != nil {
		task.RepeatType = *patch.RepeatType
	}
	if patch.CategoryID != nil {
		task.CategoryID = *patch.CategoryID
	}
	if patch.ActualDuration != nil {
		v := *patch.ActualDuration
		task.ActualDuration = &v
	}
}

// MarkComplete completes a pending task and awards its points. Completing an
// already-completed task changes nothing.
func (s *TaskService) MarkComplete(ctx context.Context, id string, actualDuration *int) (*model.Task, error) {
	return s.transition(ctx, id, actualDuration, func(bool) bool { return true })
}

// MarkIncomplete reverts a completed task and takes back exactly the points it was awarded.
func (s *TaskService) MarkIncomplete(ctx context.Context, id string) (*model.Task, error) {
	return s.transition(ctx, id, nil, func(bool) bool { return false })
}

// CompleteTask toggles completion: tap to complete, tap again to undo.
func (s *TaskService) CompleteTask(ctx context.Context, id string, actualDuration *int) (*model.Task, error) {
	return s.transition(ctx, id, actualDuration, func(completed bool) bool { return !completed })
}

// transition moves a task to the state chosen by target, keeping completed,
// points and the running total in lockstep under one lock.
func (s *TaskService) transition(ctx context.Context, id string, actualDuration *int, target func(completed bool) bool) (*model.Task, error) {
	s.mu.Lock()
	s.reloadLocked(ctx)
	task, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return nil, nil
	}

	want := target(task.Completed)
	if want == task.Completed {
		out := task.Clone()
		s.mu.Unlock()
		return &out, nil
	}

	kind := TaskCompleted
	if want {
		if actualDuration != nil {
			v := *actualDuration
			task.ActualDuration = &v
		}
		task.Points = PointsForTask(*task, nil)
		task.Completed = true
		s.stats.Points += task.Points
	} else {
		s.stats.Points -= task.Points
		task.Points = 0
		task.Completed = false
		kind = TaskUncompleted
	}
	s.stats.Level = CalculateLevel(s.stats.Points)
	s.persistTasksLocked(ctx)
	s.persistStatsLocked(ctx)
	out := task.Clone()
	stats := s.stats
	s.mu.Unlock()

	if want {
		s.notifier.Cancel(ctx, id)
	}
	s.logger.Debug("task completion changed",
		zap.String("task_id", id),
		zap.Bool("completed", want),
		zap.Int("points", out.Points),
		zap.Int("total_points", stats.Points),
		zap.Int("level", stats.Level))
	s.publish(ctx, TaskEvent{Kind: kind, TaskID: id})
	return &out, nil
}

// DeleteTask removes a task and disarms its reminder. Goals and sessions
// referencing it are left as they are.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	s.reloadLocked(ctx)
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.persistTasksLocked(ctx)
	s.mu.Unlock()

	s.notifier.Cancel(ctx, id)
	s.publish(ctx, TaskEvent{Kind: TaskDeleted, TaskID: id})
	return nil
}

// ClearAllTasks empties the task list and disarms every reminder.
func (s *TaskService) ClearAllTasks(ctx context.Context) error {
	s.mu.Lock()
	s.reloadLocked(ctx)
	removed := append([]string(nil), s.order...)
	s.replaceLocked(nil)
	s.persistTasksLocked(ctx)
	s.mu.Unlock()

	for _, id := range removed {
		s.notifier.Cancel(ctx, id)
	}
	s.publish(ctx, TaskEvent{Kind: TasksCleared})
	return nil
}

// AddAttachment appends a link or note to a task. Unknown task ids yield (nil, nil).
func (s *TaskService) AddAttachment(ctx context.Context, taskID string, input AttachmentInput) (*model.Attachment, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput("attachment", input); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
	task, ok := s.byID[taskID]
	if !ok {
		return nil, nil
	}
	attachment := model.Attachment{
		ID:        s.newID(),
		Name:      input.Name,
		Type:      input.Type,
		Content:   input.Content,
		CreatedAt: s.now(),
	}
	task.Attachments = append(task.Attachments, attachment)
	s.persistTasksLocked(ctx)
	return &attachment, nil
}

// RemoveAttachment drops an attachment; missing task or attachment ids are ignored.
func (s *TaskService) RemoveAttachment(ctx context.Context, taskID, attachmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
	task, ok := s.byID[taskID]
	if !ok {
		return nil
	}
	for i, a := range task.Attachments {
		if a.ID == attachmentID {
			task.Attachments = append(task.Attachments[:i], task.Attachments[i+1:]...)
			s.persistTasksLocked(ctx)
			return nil
		}
	}
	return nil
}

// ExportData writes {tasks, sessions, userStats} into the backup slot and returns the bundle.
func (s *TaskService) ExportData(ctx context.Context) (model.Backup, error) {
	backup := s.Backup()
	if err := s.settings.SaveBackup(ctx, backup); err != nil {
		s.logger.Error("export data", zap.Error(err))
		return backup, model.WrapError(model.ErrCodeInternal, "export data", err)
	}
	s.logger.Info("data exported", zap.Int("tasks", len(*backup.Tasks)), zap.Int("sessions", len(*backup.Sessions)))
	return backup, nil
}

// Backup builds the export bundle without persisting it.
func (s *TaskService) Backup() model.Backup {
	s.mu.Lock()
	tasks := s.snapshotLocked()
	stats := s.stats
	sessions := s.sessions
	s.mu.Unlock()

	var sessionList []model.StudySession
	if sessions != nil {
		sessionList = sessions.Sessions()
	}
	if sessionList == nil {
		sessionList = []model.StudySession{}
	}
	return model.Backup{
		Tasks:      &tasks,
		Sessions:   &sessionList,
		UserStats:  &stats,
		ExportDate: s.now(),
		Version:    model.BackupVersion,
	}
}

// ImportData restores the bundle held in the backup slot.
func (s *TaskService) ImportData(ctx context.Context) error {
	raw, ok, err := s.settings.Backup(ctx)
	if err != nil {
		s.logger.Error("read backup", zap.Error(err))
		return model.WrapError(model.ErrCodeInternal, "read backup", err)
	}
	if !ok {
		return model.ErrBackupNotFound
	}
	var backup model.Backup
	if err := json.Unmarshal(raw, &backup); err != nil {
		return model.WrapError(model.ErrCodeInvalid, model.ErrInvalidBackup.Message, err)
	}
	s.ApplyBackup(ctx, backup)
	return nil
}

// ApplyBackup overwrites whichever of tasks, sessions and user stats the bundle
// carries; absent parts leave the current state untouched.
func (s *TaskService) ApplyBackup(ctx context.Context, backup model.Backup) {
	var cancelled []string
	var armed []model.Task

	s.mu.Lock()
	s.reloadLocked(ctx)
	if backup.Tasks != nil {
		cancelled = append(cancelled, s.order...)
		s.replaceLocked(*backup.Tasks)
		s.persistTasksLocked(ctx)
		for _, id := range s.order {
			if t := s.byID[id]; !t.Completed {
				armed = append(armed, t.Clone())
			}
		}
	}
	if backup.UserStats != nil {
		s.stats = model.UserStats{
			Points: backup.UserStats.Points,
			Level:  CalculateLevel(backup.UserStats.Points),
		}
		s.persistStatsLocked(ctx)
	}
	sessions := s.sessions
	s.mu.Unlock()

	if backup.Sessions != nil && sessions != nil {
		sessions.ReplaceSessions(ctx, *backup.Sessions)
	}
	for _, id := range cancelled {
		s.notifier.Cancel(ctx, id)
	}
	for _, t := range armed {
		s.notifier.Schedule(ctx, t)
	}
	s.logger.Info("data imported",
		zap.Bool("tasks", backup.Tasks != nil),
		zap.Bool("sessions", backup.Sessions != nil),
		zap.Bool("user_stats", backup.UserStats != nil))
	s.publish(ctx, TaskEvent{Kind: TasksImported})
}

// RearmReminders schedules every pending task; used when a long-running process starts.
func (s *TaskService) RearmReminders(ctx context.Context) int {
	pending := s.Filter(FilterPending)
	for _, t := range pending {
		s.notifier.Schedule(ctx, t)
	}
	return len(pending)
}

// Get returns a copy of the task with the given id.
func (s *TaskService) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.byID[id]
	if !ok {
		return model.Task{}, false
	}
	return task.Clone(), true
}

// Tasks returns all tasks, pending first, each group ordered by reminder date.
func (s *TaskService) Tasks() []model.Task {
	s.mu.Lock()
	tasks := s.snapshotLocked()
	s.mu.Unlock()
	sortForDisplay(tasks)
	return tasks
}

// Filter returns the display-ordered tasks matching f.
func (s *TaskService) Filter(f TaskFilter) []model.Task {
	all := s.Tasks()
	if f == "" || f == FilterAll {
		return all
	}
	out := make([]model.Task, 0, len(all))
	for _, t := range all {
		if t.Completed == (f == FilterCompleted) {
			out = append(out, t)
		}
	}
	return out
}

// TasksOn returns tasks whose reminder falls on day's calendar date (in day's location).
func (s *TaskService) TasksOn(day time.Time) []model.Task {
	var out []model.Task
	for _, t := range s.Tasks() {
		if sameDay(t.ReminderDate.In(day.Location()), day) {
			out = append(out, t)
		}
	}
	return out
}

// MarkedDates groups tasks by reminder date (YYYY-MM-DD in loc) for the calendar view.
func (s *TaskService) MarkedDates(loc *time.Location) map[string]DayMark {
	marks := make(map[string]DayMark)
	for _, t := range s.Tasks() {
		key := t.ReminderDate.In(loc).Format(time.DateOnly)
		mark := marks[key]
		mark.Total++
		if t.Completed {
			mark.Completed++
		}
		marks[key] = mark
	}
	return marks
}

// UserStats returns the points total and the level derived from it.
func (s *TaskService) UserStats() model.UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Streak is recomputed against the wall clock on every call.
func (s *TaskService) Streak() int {
	return CurrentStreak(s.Tasks(), s.now())
}

// Stats computes the statistics view.
func (s *TaskService) Stats() Stats {
	return ComputeStats(s.Tasks(), s.UserStats().Points, s.now())
}

func (s *TaskService) insertLocked(task model.Task) {
	t := task.Clone()
	s.byID[t.ID] = &t
	s.order = append(s.order, t.ID)
}

func (s *TaskService) replaceLocked(tasks []model.Task) {
	s.byID = make(map[string]*model.Task, len(tasks))
	s.order = make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t.Attachments == nil {
			t.Attachments = []model.Attachment{}
		}
		if _, dup := s.byID[t.ID]; dup {
			continue
		}
		s.insertLocked(t)
	}
}

func (s *TaskService) snapshotLocked() []model.Task {
	out := make([]model.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// persistTasksLocked writes the whole list. Failures are logged; memory stays updated.
func (s *TaskService) persistTasksLocked(ctx context.Context) {
	if err := s.repo.SaveAll(ctx, s.snapshotLocked()); err != nil {
		s.logger.Error("save tasks", zap.Error(err))
	}
}

func (s *TaskService) persistStatsLocked(ctx context.Context) {
	if err := s.repo.SaveStats(ctx, s.stats); err != nil {
		s.logger.Error("save user stats", zap.Error(err))
	}
}

func (s *TaskService) publish(ctx context.Context, ev TaskEvent) {
	s.mu.Lock()
	subs := append([]TaskSubscriber(nil), s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(ctx, ev)
	}
}

func sortForDisplay(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Completed != tasks[j].Completed {
			return !tasks[i].Completed
		}
		return tasks[i].ReminderDate.Before(tasks[j].ReminderDate)
	})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
