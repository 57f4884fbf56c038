package service

import (
	"sort"
	"time"

	"study-reminder/internal/model"
)

const (
	basePoints     = 10
	pointsPerLevel = 100
	durationStep   = 15
	pointsPerStep  = 5
	hoursPerDay    = 24
)

// PriorityBonus returns the bonus for a priority; anything unrecognized scores as low.
func PriorityBonus(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 15
	case model.PriorityMedium:
		return 10
	default:
		return 5
	}
}

// CalculatePoints = 10 + priority bonus + 5 per full 15 minutes.
func CalculatePoints(priority model.Priority, effectiveDuration int) int {
	if effectiveDuration < 0 {
		effectiveDuration = 0
	}
	return basePoints + PriorityBonus(priority) + (effectiveDuration/durationStep)*pointsPerStep
}

// PointsForTask scores a task, preferring actual over the task's own estimate.
func PointsForTask(task model.Task, actualDuration *int) int {
	effective := task.EffectiveDuration()
	if actualDuration != nil {
		effective = *actualDuration
	}
	return CalculatePoints(task.Priority, effective)
}

// CalculateLevel derives the level from total points; level 1 is the floor.
func CalculateLevel(totalPoints int) int {
	if totalPoints < 0 {
		return 1
	}
	return totalPoints/pointsPerLevel + 1
}

// CurrentStreak counts consecutive calendar days with a completed task, ending today
// in now's location. Dates come from createdAt, not reminderDate.
func CurrentStreak(tasks []model.Task, now time.Time) int {
	completed := make([]time.Time, 0, len(tasks))
	for _, task := range tasks {
		if task.Completed {
			completed = append(completed, task.CreatedAt)
		}
	}
	sort.Slice(completed, func(i, j int) bool { return completed[i].After(completed[j]) })

	streak := 0
	for _, created := range completed {
		diff := daysBetween(created, now)
		if diff == streak {
			streak++
		} else if diff > streak {
			break
		}
	}
	return streak
}

// daysBetween counts calendar days from a to b, both read in b's location.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / hoursPerDay)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
