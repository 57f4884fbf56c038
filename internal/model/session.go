package model

import "time"

// StudySession records time actually spent on a task.
type StudySession struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"taskId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Duration  int        `json:"duration"`
	Notes     string     `json:"notes"`
	Completed bool       `json:"completed"`
}
