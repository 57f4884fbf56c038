package service

import (
	"math"
	"time"

	"study-reminder/internal/model"
)

// Achievement is a milestone unlocked by task history.
type Achievement struct {
	Key   string
	Title string
}

// Stats aggregates the task list for the statistics view.
type Stats struct {
	TotalTasks          int
	CompletedTasks      int
	PendingTasks        int
	TotalStudyMinutes   int
	AverageStudyMinutes int
	CompletionRate      int
	CurrentStreak       int
	CompletedThisWeek   int
	CompletedByPriority map[model.Priority]int
	TotalPoints         int
	Level               int
	Achievements        []Achievement
}

// ComputeStats derives every read-time aggregate from the task list and the points total.
func ComputeStats(tasks []model.Task, totalPoints int, now time.Time) Stats {
	byPriority := map[model.Priority]int{
		model.PriorityHigh:   0,
		model.PriorityMedium: 0,
		model.PriorityLow:    0,
	}
	stats := Stats{
		TotalTasks:          len(tasks),
		CompletedByPriority: byPriority,
		TotalPoints:         totalPoints,
		Level:               CalculateLevel(totalPoints),
		CurrentStreak:       CurrentStreak(tasks, now),
	}

	weekStart := startOfWeek(now)
	for _, task := range tasks {
		if !task.Completed {
			stats.PendingTasks++
			continue
		}
		stats.CompletedTasks++
		stats.TotalStudyMinutes += task.EffectiveDuration()
		stats.CompletedByPriority[task.Priority]++
		if !task.CreatedAt.Before(weekStart) {
			stats.CompletedThisWeek++
		}
	}

	if stats.CompletedTasks > 0 {
		stats.AverageStudyMinutes = int(math.Round(float64(stats.TotalStudyMinutes) / float64(stats.CompletedTasks)))
	}
	if stats.TotalTasks > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100))
	}
	stats.Achievements = achievementsFor(stats)
	return stats
}

func achievementsFor(s Stats) []Achievement {
	var out []Achievement
	if s.CompletedTasks >= 1 {
		out = append(out, Achievement{Key: "first_task", Title: "First task completed"})
	}
	if s.CompletedTasks >= 5 {
		out = append(out, Achievement{Key: "five_tasks", Title: "5 tasks completed"})
	}
	if s.CompletedTasks >= 10 {
		out = append(out, Achievement{Key: "ten_tasks", Title: "10 tasks completed"})
	}
	if s.TotalStudyMinutes >= 60 {
		out = append(out, Achievement{Key: "one_hour", Title: "1 hour of study"})
	}
	if s.CompletionRate >= 80 && s.TotalTasks >= 5 {
		out = append(out, Achievement{Key: "completion_80", Title: "80% completion rate"})
	}
	return out
}

// startOfWeek returns the most recent Sunday at midnight.
func startOfWeek(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, -int(t.Weekday()))
}
