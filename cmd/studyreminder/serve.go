package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"study-reminder/internal/bot"
	"study-reminder/internal/service"
)

const (
	reloadInterval = time.Minute
	jobTimeout     = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reminder daemon",
	Long: `Run the reminder daemon until interrupted.

Reminders fire at each pending task's reminder time. A summary of today's and
upcoming tasks is sent at REPORT_AT, or every REPORT_INTERVAL_HOURS when
REPORT_AT is empty. With TELEGRAM_TOKEN and TELEGRAM_CHAT_ID set, messages go
to that chat and the bot answers commands; otherwise they are logged.

Changes made with other commands are picked up once a minute.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a := application
	ctx := cmd.Context()

	var sender service.Sender = service.LogSender{Logger: a.logger.Named("reminders")}
	var telegramBot *bot.Bot
	if a.cfg.TelegramEnabled() {
		b, err := bot.New(a.cfg.Telegram.Token, a.cfg.Telegram.ChatID, a.loc, a.tasks, a.reminders, a.logger.Named("bot"))
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
		telegramBot = b
		sender = b
	}
	a.reminders.SetSender(sender)

	armed := a.tasks.RearmReminders(ctx)
	if err := scheduleReports(ctx, a); err != nil {
		return err
	}
	if _, err := a.scheduler.ScheduleInterval(reloadInterval, func() { a.reload(ctx) }); err != nil {
		return fmt.Errorf("schedule reload: %w", err)
	}

	a.scheduler.Start()
	defer a.scheduler.Stop()

	a.logger.Info("daemon started",
		zap.Int("reminders", armed),
		zap.Bool("enabled", a.reminders.Enabled()),
		zap.Bool("telegram", telegramBot != nil))

	if telegramBot != nil {
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("bot stopped: %w", err)
		}
	} else {
		<-ctx.Done()
	}

	a.logger.Info("shutdown complete")
	return nil
}

// scheduleReports registers the summary job: daily at REPORT_AT, or on REPORT_INTERVAL_HOURS.
func scheduleReports(ctx context.Context, a *app) error {
	job := func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		if err := a.reminders.SendSummary(jobCtx, a.tasks.Tasks()); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("send summary", zap.Error(err))
		}
	}

	switch {
	case a.cfg.ReportAt != "":
		if _, err := a.scheduler.ScheduleDaily(a.cfg.ReportAt, job); err != nil {
			return fmt.Errorf("schedule daily report: %w", err)
		}
	case a.cfg.ReportInterval > 0:
		if _, err := a.scheduler.ScheduleInterval(a.cfg.ReportInterval, job); err != nil {
			return fmt.Errorf("schedule reports: %w", err)
		}
	}
	return nil
}
