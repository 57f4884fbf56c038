package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"study-reminder/internal/model"
)

var statsJSON bool

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print as JSON")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show points, level, streak and achievements",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, _ []string) error {
	stats := application.tasks.Stats()
	out := cmd.OutOrStdout()
	if statsJSON {
		return printJSON(out, stats)
	}

	w := newTable(out)
	fmt.Fprintf(w, "Level\t%d\n", stats.Level)
	fmt.Fprintf(w, "Points\t%d\n", stats.TotalPoints)
	fmt.Fprintf(w, "Streak\t%d day(s)\n", stats.CurrentStreak)
	fmt.Fprintf(w, "Tasks\t%d total, %d completed, %d pending\n", stats.TotalTasks, stats.CompletedTasks, stats.PendingTasks)
	fmt.Fprintf(w, "Completion rate\t%d%%\n", stats.CompletionRate)
	fmt.Fprintf(w, "Study time\t%d min (avg %d min)\n", stats.TotalStudyMinutes, stats.AverageStudyMinutes)
	fmt.Fprintf(w, "This week\t%d completed\n", stats.CompletedThisWeek)
	fmt.Fprintf(w, "By priority\thigh %d, medium %d, low %d\n",
		stats.CompletedByPriority[model.PriorityHigh],
		stats.CompletedByPriority[model.PriorityMedium],
		stats.CompletedByPriority[model.PriorityLow])
	if err := w.Flush(); err != nil {
		return err
	}

	if len(stats.Achievements) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\nAchievements:")
	for _, a := range stats.Achievements {
		fmt.Fprintf(out, "  * %s\n", a.Title)
	}
	return nil
}
