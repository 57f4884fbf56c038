package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"study-reminder/internal/model"
	"study-reminder/internal/service"
)

var (
	// task command flags
	taskAt         string
	taskDuration   int
	taskPriority   string
	taskRepeat     string
	taskNotes      string
	taskCategory   string
	taskActual     int
	taskFilter     string
	taskDay        string
	taskJSON       bool
	taskYes        bool
	attachName     string
	attachType     string
	attachContent  string
	attachRemoveID string
)

func init() {
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskCalendarCmd)
	taskCmd.AddCommand(taskCompleteCmd)
	taskCmd.AddCommand(taskUndoCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskClearCmd)
	taskCmd.AddCommand(taskAttachCmd)

	for _, c := range []*cobra.Command{taskAddCmd, taskEditCmd} {
		c.Flags().StringVar(&taskAt, "at", "", `Reminder time: "YYYY-MM-DD HH:MM", "HH:MM" (today) or RFC3339`)
		c.Flags().IntVar(&taskDuration, "duration", 0, "Planned duration in minutes")
		c.Flags().StringVar(&taskPriority, "priority", "", "Priority: high, medium or low")
		c.Flags().StringVar(&taskRepeat, "repeat", "", "Repeat: none, daily, weekly or monthly")
		c.Flags().StringVar(&taskNotes, "notes", "", "Free-form notes")
		c.Flags().StringVar(&taskCategory, "category", "", "Category id")
	}

	taskListCmd.Flags().StringVar(&taskFilter, "filter", "all", "Filter: all, pending or completed")
	taskListCmd.Flags().StringVar(&taskDay, "day", "", "Only tasks due on this date (YYYY-MM-DD)")
	taskListCmd.Flags().BoolVar(&taskJSON, "json", false, "Output results as JSON")

	taskCompleteCmd.Flags().IntVar(&taskActual, "actual", 0, "Minutes actually spent (scores instead of the planned duration)")
	taskClearCmd.Flags().BoolVar(&taskYes, "yes", false, "Confirm deleting every task")

	taskAttachCmd.Flags().StringVar(&attachName, "name", "", "Attachment name")
	taskAttachCmd.Flags().StringVar(&attachType, "type", string(model.AttachmentNote), "Attachment type: link or note")
	taskAttachCmd.Flags().StringVar(&attachContent, "content", "", "URL or note text")
	taskAttachCmd.Flags().StringVar(&attachRemoveID, "remove", "", "Remove the attachment with this id instead")
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage study tasks",
	Long: `Manage study tasks.

Examples:
  # Add a task for tonight that repeats every day for ten days
  studyreminder task add "Spanish vocabulary" --at 20:00 --duration 30 --repeat daily

  # Complete it, recording the real time spent
  studyreminder task complete 1a2b3c4d --actual 45

  # Show pending tasks only
  studyreminder task list --filter pending`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add <subject>",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskAdd,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <id> [subject]",
	Short: "Edit fields of a task",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTaskEdit,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, pending first",
	RunE:  runTaskList,
}

var taskCalendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show how many tasks fall on each day",
	RunE:  runTaskCalendar,
}

var taskCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Mark a task completed and award its points",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskComplete,
}

var taskUndoCmd = &cobra.Command{
	Use:   "undo <id>",
	Short: "Mark a completed task pending again and take its points back",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUndo,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var taskClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every task",
	RunE:  runTaskClear,
}

var taskAttachCmd = &cobra.Command{
	Use:   "attach <id>",
	Short: "Attach a link or note to a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskAttach,
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	a := application
	at, err := parseWhen(taskAt, time.Now(), a.loc)
	if err != nil {
		return err
	}
	task, err := a.tasks.AddTask(cmd.Context(), service.TaskInput{
		Subject:      strings.Join(args, " "),
		ReminderDate: at,
		Duration:     taskDuration,
		Priority:     model.Priority(taskPriority),
		Notes:        taskNotes,
		RepeatType:   model.RepeatType(taskRepeat),
		CategoryID:   taskCategory,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Added %s  %s  %s\n", shortID(task.ID), task.Subject, task.ReminderDate.In(a.loc).Format(displayTime))
	if task.IsRecurring() {
		fmt.Fprintf(out, "Scheduled %d %s repeats\n", service.RecurrenceInstances, task.RepeatType)
	}
	return nil
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	a := application
	id, err := resolveID("task", args[0], taskIDs(a.tasks.Tasks()))
	if err != nil {
		return err
	}

	var patch service.TaskPatch
	flags := cmd.Flags()
	if len(args) == 2 {
		subject := strings.TrimSpace(args[1])
		patch.Subject = &subject
	}
	if flags.Changed("at") {
		at, err := parseWhen(taskAt, time.Now(), a.loc)
		if err != nil {
			return err
		}
		patch.ReminderDate = &at
	}
	if flags.Changed("duration") {
		patch.Duration = &taskDuration
	}
	if flags.Changed("priority") {
		p := model.Priority(taskPriority)
		patch.Priority = &p
	}
	if flags.Changed("repeat") {
		r := model.RepeatType(taskRepeat)
		patch.RepeatType = &r
	}
	if flags.Changed("notes") {
		patch.Notes = &taskNotes
	}
	if flags.Changed("category") {
		patch.CategoryID = &taskCategory
	}

	task, err := a.tasks.UpdateTask(cmd.Context(), id, patch)
	if err != nil {
		return err
	}
	if task == nil {
		return model.ErrTaskNotFound
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s  %s\n", shortID(task.ID), task.Subject)
	return nil
}

func runTaskList(cmd *cobra.Command, _ []string) error {
	a := application
	filter, err := service.ParseTaskFilter(taskFilter)
	if err != nil {
		return err
	}
	tasks := a.tasks.Filter(filter)
	if taskDay != "" {
		day, err := time.ParseInLocation(time.DateOnly, taskDay, a.loc)
		if err != nil {
			return fmt.Errorf("invalid --day: %w", err)
		}
		tasks = filterByDay(tasks, a.tasks.TasksOn(day))
	}

	if taskJSON {
		return printJSON(cmd.OutOrStdout(), tasks)
	}
	if len(tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
		return nil
	}

	names := make(map[string]string)
	for _, c := range a.categories.List() {
		names[c.ID] = c.Name
	}

	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tDONE\tSUBJECT\tWHEN\tMIN\tPRIORITY\tREPEAT\tCATEGORY\tPOINTS")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t[%s]\t%s\t%s\t%d\t%s\t%s\t%s\t%d\n",
			shortID(t.ID), check(t.Completed), t.Subject, t.ReminderDate.In(a.loc).Format(displayTime),
			t.EffectiveDuration(), t.Priority, t.RepeatType, names[t.CategoryID], t.Points)
	}
	return w.Flush()
}

// filterByDay keeps the tasks of list that also appear in onDay, preserving list order.
func filterByDay(list, onDay []model.Task) []model.Task {
	keep := make(map[string]bool, len(onDay))
	for _, t := range onDay {
		keep[t.ID] = true
	}
	out := list[:0]
	for _, t := range list {
		if keep[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

func runTaskCalendar(cmd *cobra.Command, _ []string) error {
	marks := application.tasks.MarkedDates(application.loc)
	days := make([]string, 0, len(marks))
	for day := range marks {
		days = append(days, day)
	}
	sort.Strings(days)

	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "DATE\tTASKS\tDONE")
	for _, day := range days {
		fmt.Fprintf(w, "%s\t%d\t%d\n", day, marks[day].Total, marks[day].Completed)
	}
	return w.Flush()
}

func runTaskComplete(cmd *cobra.Command, args []string) error {
	a := application
	id, err := resolveID("task", args[0], taskIDs(a.tasks.Tasks()))
	if err != nil {
		return err
	}
	var actual *int
	if cmd.Flags().Changed("actual") {
		actual = &taskActual
	}
	task, err := a.tasks.MarkComplete(cmd.Context(), id, actual)
	if err != nil {
		return err
	}
	if task == nil {
		return model.ErrTaskNotFound
	}
	stats := a.tasks.UserStats()
	fmt.Fprintf(cmd.OutOrStdout(), "Completed %s: +%d points (level %d, %d points)\n",
		task.Subject, task.Points, stats.Level, stats.Points)
	return nil
}

func runTaskUndo(cmd *cobra.Command, args []string) error {
	a := application
	id, err := resolveID("task", args[0], taskIDs(a.tasks.Tasks()))
	if err != nil {
		return err
	}
	task, err := a.tasks.MarkIncomplete(cmd.Context(), id)
	if err != nil {
		return err
	}
	if task == nil {
		return model.ErrTaskNotFound
	}
	stats := a.tasks.UserStats()
	fmt.Fprintf(cmd.OutOrStdout(), "%s is pending again (level %d, %d points)\n", task.Subject, stats.Level, stats.Points)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	a := application
	id, err := resolveID("task", args[0], taskIDs(a.tasks.Tasks()))
	if err != nil {
		return err
	}
	if err := a.tasks.DeleteTask(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", shortID(id))
	return nil
}

func runTaskClear(cmd *cobra.Command, _ []string) error {
	if !taskYes {
		return fmt.Errorf("refusing to delete every task without --yes")
	}
	n := len(application.tasks.Tasks())
	if err := application.tasks.ClearAllTasks(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d task(s)\n", n)
	return nil
}

func runTaskAttach(cmd *cobra.Command, args []string) error {
	a := application
	id, err := resolveID("task", args[0], taskIDs(a.tasks.Tasks()))
	if err != nil {
		return err
	}
	if attachRemoveID != "" {
		task, ok := a.tasks.Get(id)
		if !ok {
			return model.ErrTaskNotFound
		}
		attachmentID, err := resolveID("attachment", attachRemoveID, attachmentIDs(task.Attachments))
		if err != nil {
			return err
		}
		if err := a.tasks.RemoveAttachment(cmd.Context(), id, attachmentID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed attachment %s\n", shortID(attachmentID))
		return nil
	}
	attachment, err := a.tasks.AddAttachment(cmd.Context(), id, service.AttachmentInput{
		Name:    attachName,
		Type:    model.AttachmentType(attachType),
		Content: attachContent,
	})
	if err != nil {
		return err
	}
	if attachment == nil {
		return model.ErrTaskNotFound
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Attached %s %q (%s)\n", attachment.Type, attachment.Name, attachment.ID)
	return nil
}
