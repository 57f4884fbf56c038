// Package main implements the studyreminder CLI and reminder daemon.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"study-reminder/internal/config"
)

var (
	// application is wired once per invocation by the root pre-run hook.
	application *app
	version     = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if application != nil {
		application.Close()
	}
	if err != nil {
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "studyreminder",
	Short: "Plan study tasks, earn points and get reminded",
	Long: `studyreminder keeps a list of study tasks with reminders, awards points
and levels for completed work, tracks goals, categories and study sessions,
and runs a daemon that delivers reminders to the log or a Telegram chat.

Configuration comes from the environment (or a .env file):
  DATA_DIR, STORAGE_DRIVER (sqlite|bolt), DATABASE_URL, BOLTDB_PATH,
  TELEGRAM_TOKEN, TELEGRAM_CHAT_ID, REPORT_INTERVAL_HOURS, REPORT_AT,
  REMINDERS_ENABLED, TIMEZONE, LOG_LEVEL, LOG_ENCODING`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		application = a
		return nil
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(pomodoroCmd)
	rootCmd.AddCommand(remindersCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(serveCmd)
}
