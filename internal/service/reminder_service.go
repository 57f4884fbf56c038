package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"study-reminder/internal/model"
	"study-reminder/internal/repository"
)

const sendTimeout = 30 * time.Second

// ReminderService arms one cron entry per pending task and delivers it through a Sender.
type ReminderService struct {
	base
	scheduler *SchedulerService
	settings  *repository.SettingsRepository
	sender    Sender

	mu      sync.Mutex
	enabled bool
	entries map[string]cron.EntryID
}

func NewReminderService(scheduler *SchedulerService, settings *repository.SettingsRepository, sender Sender, opts ...Option) *ReminderService {
	s := &ReminderService{
		base:      newBase(opts),
		scheduler: scheduler,
		settings:  settings,
		sender:    sender,
		enabled:   true,
		entries:   make(map[string]cron.EntryID),
	}
	if s.sender == nil {
		s.sender = LogSender{Logger: s.logger}
	}
	return s
}

// SetSender swaps the delivery transport, for senders built after the service.
func (s *ReminderService) SetSender(sender Sender) {
	if sender == nil {
		return
	}
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

// Load reads the stored on/off switch, falling back to fallback when never saved.
func (s *ReminderService) Load(ctx context.Context, fallback bool) {
	enabled, err := s.settings.NotificationsEnabled(ctx, fallback)
	if err != nil {
		s.logger.Error("load notification settings", zap.Error(err))
	}
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
}

func (s *ReminderService) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetEnabled flips the global switch. Disabling keeps armed entries, but they
// deliver nothing while the switch is off.
func (s *ReminderService) SetEnabled(ctx context.Context, enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
	if err := s.settings.SetNotificationsEnabled(ctx, enabled); err != nil {
		s.logger.Error("save notification settings", zap.Error(err))
	}
}

// Schedule arms a reminder at task.ReminderDate. Past dates, completed tasks
// and a disabled switch are no-ops.
func (s *ReminderService) Schedule(_ context.Context, task model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || task.Completed || !task.ReminderDate.After(s.now()) {
		return
	}
	s.cancelLocked(task.ID)

	taskID, subject := task.ID, task.Subject
	id, err := s.scheduler.ScheduleOnce(task.ReminderDate, func() { s.fire(taskID, subject) })
	if err != nil {
		s.logger.Warn("schedule reminder", zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	s.entries[task.ID] = id
}

// Cancel disarms the reminder for taskID, if any.
func (s *ReminderService) Cancel(_ context.Context, taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(taskID)
}

func (s *ReminderService) cancelLocked(taskID string) {
	if id, ok := s.entries[taskID]; ok {
		s.scheduler.Remove(id)
		delete(s.entries, taskID)
	}
}

// Sync makes the armed set match tasks: entries for ids not in tasks are
// dropped and every task is (re)scheduled.
func (s *ReminderService) Sync(ctx context.Context, tasks []model.Task) {
	keep := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		keep[t.ID] = true
	}
	s.mu.Lock()
	for id := range s.entries {
		if !keep[id] {
			s.cancelLocked(id)
		}
	}
	s.mu.Unlock()
	for _, t := range tasks {
		s.Schedule(ctx, t)
	}
}

// Armed reports whether a reminder is pending for taskID.
func (s *ReminderService) Armed(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[taskID]
	return ok
}

// Pending is the number of armed reminders.
func (s *ReminderService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *ReminderService) fire(taskID, subject string) {
	s.mu.Lock()
	s.cancelLocked(taskID)
	enabled, sender := s.enabled, s.sender
	s.mu.Unlock()
	if !enabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := sender.Send(ctx, ReminderText(subject)); err != nil {
		s.logger.Warn("deliver reminder", zap.String("task_id", taskID), zap.Error(err))
	}
}

// ReminderText renders the message for a due task.
func ReminderText(subject string) string {
	return fmt.Sprintf("📚 Time to study: <b>%s</b>", html.EscapeString(strings.TrimSpace(subject)))
}

// SendSummary delivers DailySummary for tasks through the configured sender.
func (s *ReminderService) SendSummary(ctx context.Context, tasks []model.Task) error {
	s.mu.Lock()
	sender := s.sender
	s.mu.Unlock()
	return sender.Send(ctx, DailySummary(tasks, s.now().In(s.scheduler.Location())))
}

// DailySummary builds the periodic report of pending tasks: overdue, due today, upcoming.
func DailySummary(tasks []model.Task, now time.Time) string {
	var overdue, today, upcoming []model.Task
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		due := task.ReminderDate.In(now.Location())
		switch {
		case sameDay(due, now):
			today = append(today, task)
		case due.Before(now):
			overdue = append(overdue, task)
		default:
			upcoming = append(upcoming, task)
		}
	}
	for _, group := range [][]model.Task{overdue, today, upcoming} {
		sortForDisplay(group)
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Study report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n", now.Format("02.01.2006")))

	writeSection(&builder, "⚠️ <b>Overdue</b>", overdue, now)
	writeSection(&builder, "⏳ <b>Today</b>", today, now)
	writeSection(&builder, "🟢 <b>Upcoming</b>", upcoming, now)

	return strings.TrimSpace(builder.String())
}

func writeSection(builder *strings.Builder, title string, tasks []model.Task, now time.Time) {
	builder.WriteString("\n" + title + "\n")
	if len(tasks) == 0 {
		builder.WriteString("— nothing here\n")
		return
	}
	for _, task := range tasks {
		builder.WriteString(formatTask(task, now))
	}
}

func formatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	due := task.ReminderDate.In(now.Location())
	sb.WriteString(fmt.Sprintf("%s %s", priorityIcon(task.Priority), html.EscapeString(strings.TrimSpace(task.Subject))))
	sb.WriteString(fmt.Sprintf("\n   ⏰ %s · %d min", due.Format("2006-01-02 15:04"), task.Duration))
	if task.IsRecurring() {
		sb.WriteString(fmt.Sprintf(" · ♻️ %s", task.RepeatType))
	}
	if notes := strings.TrimSpace(task.Notes); notes != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(notes)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func priorityIcon(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "🔴"
	case model.PriorityMedium:
		return "🟠"
	default:
		return "🟢"
	}
}
