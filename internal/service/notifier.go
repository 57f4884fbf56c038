package service

import (
	"context"

	"go.uber.org/zap"

	"study-reminder/internal/model"
)

// Notifier arms and disarms task reminders. Calls are best-effort: implementations
// log their own failures and never report them back to the task store.
type Notifier interface {
	Schedule(ctx context.Context, task model.Task)
	Cancel(ctx context.Context, taskID string)
}

type nopNotifier struct{}

func (nopNotifier) Schedule(context.Context, model.Task) {}
func (nopNotifier) Cancel(context.Context, string)       {}

// Sender delivers a rendered reminder to the user.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// LogSender writes reminders to the log; used when no chat transport is configured.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, text string) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("reminder", zap.String("text", text))
	return nil
}
