package service

import "context"

// TaskEventKind names a task store mutation.
type TaskEventKind string

const (
	TaskAdded       TaskEventKind = "added"
	TaskUpdated     TaskEventKind = "updated"
	TaskCompleted   TaskEventKind = "completed"
	TaskUncompleted TaskEventKind = "uncompleted"
	TaskDeleted     TaskEventKind = "deleted"
	TasksCleared    TaskEventKind = "cleared"
	TasksImported   TaskEventKind = "imported"
)

// TaskEvent is published after a mutation has been applied and persisted.
type TaskEvent struct {
	Kind   TaskEventKind
	TaskID string
}

// TaskSubscriber receives task events synchronously, outside the store lock.
type TaskSubscriber func(ctx context.Context, ev TaskEvent)
