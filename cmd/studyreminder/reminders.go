package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"study-reminder/internal/service"
)

var remindersCmd = &cobra.Command{
	Use:       "reminders [on|off|status]",
	Short:     "Turn reminder delivery on or off",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off", "status"},
	RunE:      runReminders,
}

func runReminders(cmd *cobra.Command, args []string) error {
	a := application
	action := "status"
	if len(args) == 1 {
		action = args[0]
	}
	switch action {
	case "on":
		a.reminders.SetEnabled(cmd.Context(), true)
	case "off":
		a.reminders.SetEnabled(cmd.Context(), false)
	}

	state := "off"
	if a.reminders.Enabled() {
		state = "on"
	}
	pending := len(a.tasks.Filter(service.FilterPending))
	fmt.Fprintf(cmd.OutOrStdout(), "Reminders are %s (%d pending task(s))\n", state, pending)
	return nil
}
