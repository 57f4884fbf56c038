package model

import "time"

// Priority ranks a task; it drives the priority bonus when points are awarded.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// RepeatType is the cadence used to expand a task into future instances.
type RepeatType string

const (
	RepeatNone    RepeatType = "none"
	RepeatDaily   RepeatType = "daily"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
)

// AttachmentType distinguishes links from free-form notes.
type AttachmentType string

const (
	AttachmentLink AttachmentType = "link"
	AttachmentNote AttachmentType = "note"
)

// Task represents a single study block in the planner.
type Task struct {
	ID             string       `json:"id"`
	Subject        string       `json:"subject"`
	ReminderDate   time.Time    `json:"reminderDate"`
	Duration       int          `json:"duration"`
	Priority       Priority     `json:"priority"`
	Notes          string       `json:"notes"`
	RepeatType     RepeatType   `json:"repeatType"`
	CategoryID     string       `json:"categoryId,omitempty"`
	Completed      bool         `json:"completed"`
	CreatedAt      time.Time    `json:"createdAt"`
	Points         int          `json:"points"`
	ActualDuration *int         `json:"actualDuration,omitempty"`
	Attachments    []Attachment `json:"attachments"`
}

// Attachment is a link or note owned by a task.
type Attachment struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      AttachmentType `json:"type"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Clone returns a deep copy so callers never share slices or pointers with the store.
func (t Task) Clone() Task {
	out := t
	if t.ActualDuration != nil {
		v := *t.ActualDuration
		out.ActualDuration = &v
	}
	out.Attachments = make([]Attachment, len(t.Attachments))
	copy(out.Attachments, t.Attachments)
	return out
}

// EffectiveDuration prefers the recorded actual duration over the estimate.
func (t Task) EffectiveDuration() int {
	if t.ActualDuration != nil {
		return *t.ActualDuration
	}
	return t.Duration
}

// IsRecurring reports whether the task was created with a repeat cadence.
func (t Task) IsRecurring() bool {
	return t.RepeatType != "" && t.RepeatType != RepeatNone
}
