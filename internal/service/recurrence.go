package service

import "study-reminder/internal/model"

// RecurrenceInstances is how many future copies a repeating task produces.
const RecurrenceInstances = 10

// ExpandRecurrence copies template once per future occurrence. Monthly steps use
// calendar arithmetic, so Jan 31 + 1 month normalizes to early March.
func ExpandRecurrence(template model.Task, newID func() string) []model.Task {
	step, ok := recurrenceStep(template.RepeatType)
	if !ok {
		return nil
	}
	out := make([]model.Task, 0, RecurrenceInstances)
	for i := 1; i <= RecurrenceInstances; i++ {
		instance := template.Clone()
		instance.ID = newID()
		years, months, days := step(i)
		instance.ReminderDate = template.ReminderDate.AddDate(years, months, days)
		out = append(out, instance)
	}
	return out
}

func recurrenceStep(repeat model.RepeatType) (func(i int) (int, int, int), bool) {
	switch repeat {
	case model.RepeatDaily:
		return func(i int) (int, int, int) { return 0, 0, i }, true
	case model.RepeatWeekly:
		return func(i int) (int, int, int) { return 0, 0, 7 * i }, true
	case model.RepeatMonthly:
		return func(i int) (int, int, int) { return 0, i, 0 }, true
	default:
		return nil, false
	}
}
