package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"study-reminder/internal/model"
	"study-reminder/internal/service"
)

var (
	// session command flags
	sessionNotes string
	sessionTask  string

	// pomodoro command flags
	pomodoroFocus  time.Duration
	pomodoroShort  time.Duration
	pomodoroLong   time.Duration
	pomodoroCycles int
)

func init() {
	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionEndCmd)
	sessionCmd.AddCommand(sessionListCmd)

	sessionStartCmd.Flags().StringVar(&sessionNotes, "notes", "", "Session notes")
	sessionListCmd.Flags().StringVar(&sessionTask, "task", "", "Only sessions for this task")

	pomodoroCmd.Flags().DurationVar(&pomodoroFocus, "focus", service.DefaultPomodoroConfig.Focus, "Focus phase length")
	pomodoroCmd.Flags().DurationVar(&pomodoroShort, "short", service.DefaultPomodoroConfig.ShortBreak, "Short break length")
	pomodoroCmd.Flags().DurationVar(&pomodoroLong, "long", service.DefaultPomodoroConfig.LongBreak, "Long break length")
	pomodoroCmd.Flags().IntVar(&pomodoroCycles, "cycles", 4, "Focus phases to run; every fourth is followed by a long break")
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Record time spent studying a task",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start <task-id>",
	Short: "Start a study session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionStart,
}

var sessionEndCmd = &cobra.Command{
	Use:   "end [session-id]",
	Short: "End a study session (the active one by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionEnd,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List study sessions",
	RunE:  runSessionList,
}

var pomodoroCmd = &cobra.Command{
	Use:   "pomodoro <task-id>",
	Short: "Run a pomodoro timer in the foreground",
	Long: `Run focus and break phases for a task. Each focus phase is recorded as a
study session. Interrupting the timer closes the open session with the
minutes spent so far.`,
	Args: cobra.ExactArgs(1),
	RunE: runPomodoro,
}

func sessionIDs(sessions []model.StudySession) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	a := application
	taskID, err := resolveID("task", args[0], taskIDs(a.tasks.Tasks()))
	if err != nil {
		return err
	}
	session := a.sessions.StartSession(cmd.Context(), taskID, sessionNotes)
	fmt.Fprintf(cmd.OutOrStdout(), "Started session %s at %s\n", shortID(session.ID), session.StartTime.In(a.loc).Format(displayTime))
	return nil
}

func runSessionEnd(cmd *cobra.Command, args []string) error {
	a := application
	var id string
	if len(args) == 0 {
		active, ok := a.sessions.Active()
		if !ok {
			return model.ErrSessionNotFound
		}
		id = active.ID
	} else {
		resolved, err := resolveID("session", args[0], sessionIDs(a.sessions.Sessions()))
		if err != nil {
			return err
		}
		id = resolved
	}
	session := a.sessions.EndSession(cmd.Context(), id)
	if session == nil {
		return model.ErrSessionNotFound
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ended session %s: %d min\n", shortID(session.ID), session.Duration)
	return nil
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	a := application
	var taskID string
	if sessionTask != "" {
		resolved, err := resolveID("task", sessionTask, taskIDs(a.tasks.Tasks()))
		if err != nil {
			return err
		}
		taskID = resolved
	}

	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tTASK\tSTARTED\tMINUTES\tDONE\tNOTES")
	for _, s := range a.sessions.Sessions() {
		if taskID != "" && s.TaskID != taskID {
			continue
		}
		subject := shortID(s.TaskID)
		if t, ok := a.tasks.Get(s.TaskID); ok {
			subject = t.Subject
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t[%s]\t%s\n",
			shortID(s.ID), subject, s.StartTime.In(a.loc).Format(displayTime), s.Duration, check(s.Completed), s.Notes)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if taskID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Total: %d min\n", a.sessions.TotalMinutes(taskID))
	}
	return nil
}

func runPomodoro(cmd *cobra.Command, args []string) error {
	a := application
	ctx := cmd.Context()
	taskID, err := resolveID("task", args[0], taskIDs(a.tasks.Tasks()))
	if err != nil {
		return err
	}
	task, _ := a.tasks.Get(taskID)
	out := cmd.OutOrStdout()

	timer := service.NewPomodoro(service.PomodoroConfig{
		Focus:      pomodoroFocus,
		ShortBreak: pomodoroShort,
		LongBreak:  pomodoroLong,
	}, a.sessions)

	for cycle := 1; cycle <= pomodoroCycles; cycle++ {
		timer.StartFocus(ctx, taskID, time.Now())
		fmt.Fprintf(out, "Focus %d/%d on %s (%s)\n", cycle, pomodoroCycles, task.Subject, pomodoroFocus)
		if !waitPhase(ctx, timer) {
			break
		}
		if cycle == pomodoroCycles {
			break
		}
		long := cycle%4 == 0
		timer.StartBreak(long, time.Now())
		fmt.Fprintf(out, "Break (%s)\n", timer.Remaining(time.Now()).Round(time.Second))
		if !waitPhase(ctx, timer) {
			break
		}
	}

	if ctx.Err() != nil {
		// the command context is already cancelled; the session still has to be saved
		timer.Reset(context.WithoutCancel(ctx))
		fmt.Fprintln(out, "\nTimer stopped.")
	}
	fmt.Fprintf(out, "Completed %d pomodoro(s), %d min recorded for %s\n",
		timer.Completed(), a.sessions.TotalMinutes(taskID), task.Subject)
	return nil
}

// waitPhase blocks until the current phase ends or ctx is cancelled.
func waitPhase(ctx context.Context, timer *service.Pomodoro) bool {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case now := <-ticker.C:
			if _, done := timer.Advance(ctx, now); done {
				return true
			}
		}
	}
}
