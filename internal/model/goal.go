package model

import "time"

// GoalType is informational; it only picks the default deadline.
type GoalType string

const (
	GoalDaily   GoalType = "daily"
	GoalWeekly  GoalType = "weekly"
	GoalMonthly GoalType = "monthly"
)

// GoalCategory selects which aggregate feeds a goal's progress.
type GoalCategory string

const (
	GoalCategoryTasks  GoalCategory = "tasks"
	GoalCategoryTime   GoalCategory = "time"
	GoalCategoryStreak GoalCategory = "streak"
)

// Goal is a user-defined target. Completed latches: once true it stays true.
type Goal struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	TargetValue  int          `json:"targetValue"`
	CurrentValue int          `json:"currentValue"`
	Type         GoalType     `json:"type"`
	Category     GoalCategory `json:"category"`
	CreatedAt    time.Time    `json:"createdAt"`
	Deadline     time.Time    `json:"deadline"`
	Completed    bool         `json:"completed"`
	Reward       string       `json:"reward"`
}
