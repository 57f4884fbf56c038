package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"study-reminder/internal/model"
	"study-reminder/internal/service"
)

var (
	// goal command flags
	goalDescription string
	goalTarget      int
	goalType        string
	goalCategory    string
	goalDeadline    string
	goalReward      string
)

func init() {
	goalCmd.AddCommand(goalListCmd)
	goalCmd.AddCommand(goalAddCmd)
	goalCmd.AddCommand(goalProgressCmd)
	goalCmd.AddCommand(goalCompleteCmd)
	goalCmd.AddCommand(goalDeleteCmd)

	goalAddCmd.Flags().StringVar(&goalDescription, "description", "", "Goal description")
	goalAddCmd.Flags().IntVar(&goalTarget, "target", 0, "Target value (tasks, minutes or streak days)")
	goalAddCmd.Flags().StringVar(&goalType, "type", string(model.GoalDaily), "Type: daily, weekly or monthly")
	goalAddCmd.Flags().StringVar(&goalCategory, "category", string(model.GoalCategoryTasks), "Measure: tasks, time or streak")
	goalAddCmd.Flags().StringVar(&goalDeadline, "deadline", "", "Deadline (defaults by type)")
	goalAddCmd.Flags().StringVar(&goalReward, "reward", "", "Reward text")
	_ = goalAddCmd.MarkFlagRequired("target")
}

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage study goals",
	Long: `Manage study goals.

Progress is recomputed from tasks: "tasks" counts completed tasks, "time"
sums their minutes and "streak" follows the current streak. A goal that
reaches its target stays completed.

Examples:
  studyreminder goal add "Ten tasks this week" --target 10 --type weekly
  studyreminder goal add "Five hours" --target 300 --category time --type monthly`,
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals with progress",
	RunE:  runGoalList,
}

var goalAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalAdd,
}

var goalProgressCmd = &cobra.Command{
	Use:   "progress <id> <value>",
	Short: "Set a goal's current value by hand",
	Args:  cobra.ExactArgs(2),
	RunE:  runGoalProgress,
}

var goalCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Mark a goal completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalComplete,
}

var goalDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalDelete,
}

func goalIDs(goals []model.Goal) []string {
	ids := make([]string, len(goals))
	for i, g := range goals {
		ids[i] = g.ID
	}
	return ids
}

func runGoalList(cmd *cobra.Command, _ []string) error {
	a := application
	a.goals.Refresh(cmd.Context())

	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tDONE\tTITLE\tMEASURE\tPROGRESS\tDEADLINE\tREWARD")
	for _, g := range a.goals.Goals() {
		fmt.Fprintf(w, "%s\t[%s]\t%s\t%s\t%d/%d (%.0f%%)\t%s\t%s\n",
			shortID(g.ID), check(g.Completed), g.Title, g.Category,
			g.CurrentValue, g.TargetValue, service.ProgressPercent(g, g.CurrentValue),
			g.Deadline.In(a.loc).Format(displayTime), g.Reward)
	}
	return w.Flush()
}

func runGoalAdd(cmd *cobra.Command, args []string) error {
	a := application
	var deadline *time.Time
	if goalDeadline != "" {
		d, err := parseWhen(goalDeadline, time.Now(), a.loc)
		if err != nil {
			return err
		}
		deadline = &d
	}
	goal, err := a.goals.AddGoal(cmd.Context(), service.GoalInput{
		Title:       args[0],
		Description: goalDescription,
		TargetValue: goalTarget,
		Type:        model.GoalType(goalType),
		Category:    model.GoalCategory(goalCategory),
		Deadline:    deadline,
		Reward:      goalReward,
	})
	if err != nil {
		return err
	}
	a.goals.Refresh(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "Added goal %s  %s (due %s)\n", shortID(goal.ID), goal.Title, goal.Deadline.In(a.loc).Format(displayTime))
	return nil
}

func runGoalProgress(cmd *cobra.Command, args []string) error {
	a := application
	id, err := resolveID("goal", args[0], goalIDs(a.goals.Goals()))
	if err != nil {
		return err
	}
	value, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("value must be an integer: %w", err)
	}
	goal, err := a.goals.UpdateGoalProgress(cmd.Context(), id, value)
	if err != nil {
		return err
	}
	if goal == nil {
		return model.NewError(model.ErrCodeNotFound, "goal not found")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d completed=%t\n", goal.Title, goal.CurrentValue, goal.TargetValue, goal.Completed)
	return nil
}

func runGoalComplete(cmd *cobra.Command, args []string) error {
	a := application
	id, err := resolveID("goal", args[0], goalIDs(a.goals.Goals()))
	if err != nil {
		return err
	}
	if err := a.goals.CompleteGoal(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Completed goal %s\n", shortID(id))
	return nil
}

func runGoalDelete(cmd *cobra.Command, args []string) error {
	a := application
	id, err := resolveID("goal", args[0], goalIDs(a.goals.Goals()))
	if err != nil {
		return err
	}
	if err := a.goals.DeleteGoal(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted goal %s\n", shortID(id))
	return nil
}
