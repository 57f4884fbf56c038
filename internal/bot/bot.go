package bot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"study-reminder/internal/model"
	"study-reminder/internal/service"
)

const (
	cbCompletePrefix = "complete:"
	cbUndoPrefix     = "undo:"
)

const (
	iconPending  = "⏳"
	iconDone     = "✅"
	iconLevel    = "🏆"
	iconStreak   = "🔥"
	maxListTasks = 20
)

// telegramAPI is the subset of *tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot delivers reminders to one Telegram chat and answers a few commands from it.
type Bot struct {
	api       telegramAPI
	chatID    int64
	tasks     *service.TaskService
	reminders *service.ReminderService
	logger    *zap.Logger
	now       func() time.Time
}

// New authorizes against the Bot API. Times in messages are rendered in loc.
func New(token string, chatID int64, loc *time.Location, tasks *service.TaskService, reminders *service.ReminderService, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("bot authorized", zap.String("account", api.Self.UserName))
	bot := newWithAPI(api, chatID, tasks, reminders, logger)
	if loc != nil {
		bot.now = func() time.Time { return time.Now().In(loc) }
	}
	return bot, nil
}

func newWithAPI(api telegramAPI, chatID int64, tasks *service.TaskService, reminders *service.ReminderService, logger *zap.Logger) *Bot {
	return &Bot{api: api, chatID: chatID, tasks: tasks, reminders: reminders, logger: logger, now: time.Now}
}

// Send implements service.Sender: text is delivered to the configured chat as HTML.
func (b *Bot) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.sendText(b.chatID, text)
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if err := b.handleUpdate(ctx, update); err != nil {
			b.logger.Warn("handle update", zap.Int("update_id", update.UpdateID), zap.Error(err))
		}
	}

	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		if update.Message.Chat == nil || update.Message.Chat.ID != b.chatID {
			return nil
		}
		if !update.Message.IsCommand() {
			return b.sendText(b.chatID, "Send /help to see what I can do.")
		}
		return b.handleCommand(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	b.logger.Debug("command", zap.String("command", msg.Command()), zap.String("args", msg.CommandArguments()))
	switch msg.Command() {
	case "start", "help":
		return b.handleHelp()
	case "tasks":
		return b.sendTaskList()
	case "report":
		return b.sendText(b.chatID, service.DailySummary(b.tasks.Tasks(), b.now()))
	case "stats":
		return b.handleStats()
	case "streak":
		return b.sendText(b.chatID, fmt.Sprintf("%s Current streak: <b>%d</b> day(s)", iconStreak, b.tasks.Streak()))
	case "reminders":
		return b.handleReminders(ctx, msg)
	default:
		return b.sendText(b.chatID, "Unknown command. Send /help for the list.")
	}
}

func (b *Bot) handleHelp() error {
	lines := []string{
		"📚 <b>Study reminder</b>",
		"",
		"/tasks - pending tasks with a button to complete each",
		"/report - overdue, today and upcoming tasks",
		"/stats - points, level and completion rate",
		"/streak - consecutive study days",
		"/reminders on|off - switch reminders",
	}
	return b.sendText(b.chatID, strings.Join(lines, "\n"))
}

func (b *Bot) handleStats() error {
	stats := b.tasks.Stats()
	user := b.tasks.UserStats()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s Level <b>%d</b> · %d points\n", iconLevel, user.Level, user.Points))
	sb.WriteString(fmt.Sprintf("%s %d of %d tasks done (%d%%)\n", iconDone, stats.CompletedTasks, stats.TotalTasks, stats.CompletionRate))
	sb.WriteString(fmt.Sprintf("⏱ %d min studied · this week %d task(s)\n", stats.TotalStudyMinutes, stats.CompletedThisWeek))
	sb.WriteString(fmt.Sprintf("%s Streak %d day(s)", iconStreak, stats.CurrentStreak))
	return b.sendText(b.chatID, sb.String())
}

func (b *Bot) handleReminders(ctx context.Context, msg *tgbotapi.Message) error {
	if b.reminders == nil {
		return b.sendText(b.chatID, "Reminders are not available.")
	}
	switch strings.ToLower(strings.TrimSpace(msg.CommandArguments())) {
	case "on":
		b.reminders.SetEnabled(ctx, true)
		n := b.tasks.RearmReminders(ctx)
		return b.sendText(b.chatID, fmt.Sprintf("🔔 Reminders on, %d armed.", n))
	case "off":
		b.reminders.SetEnabled(ctx, false)
		return b.sendText(b.chatID, "🔕 Reminders off.")
	default:
		state := "off"
		if b.reminders.Enabled() {
			state = "on"
		}
		return b.sendText(b.chatID, fmt.Sprintf("Reminders are %s. Use /reminders on or /reminders off.", state))
	}
}

func (b *Bot) sendTaskList() error {
	pending := b.tasks.Filter(service.FilterPending)
	if len(pending) == 0 {
		return b.sendText(b.chatID, "No pending tasks. 🎉")
	}
	if len(pending) > maxListTasks {
		pending = pending[:maxListTasks]
	}

	now := b.now()
	var builder strings.Builder
	builder.WriteString("📋 <b>Pending tasks</b>\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, task := range pending {
		due := task.ReminderDate.In(now.Location())
		builder.WriteString(fmt.Sprintf("\n%d. %s %s\n   %s · %d min", i+1, iconPending, escape(task.Subject), due.Format("2006-01-02 15:04"), task.Duration))
		label := fmt.Sprintf("%s %d · %s", iconDone, i+1, shortTitle(task.Subject, 24))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbCompletePrefix+task.ID),
		))
	}

	msg := tgbotapi.NewMessage(b.chatID, builder.String())
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != b.chatID {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack", zap.Error(err))
	}

	switch {
	case strings.HasPrefix(cb.Data, cbCompletePrefix):
		task, err := b.tasks.MarkComplete(ctx, strings.TrimPrefix(cb.Data, cbCompletePrefix), nil)
		if err != nil {
			return err
		}
		if task == nil {
			return b.sendText(b.chatID, "Task not found or already deleted.")
		}
		return b.sendCompleted(*task)
	case strings.HasPrefix(cb.Data, cbUndoPrefix):
		task, err := b.tasks.MarkIncomplete(ctx, strings.TrimPrefix(cb.Data, cbUndoPrefix))
		if err != nil {
			return err
		}
		if task == nil {
			return b.sendText(b.chatID, "Task not found or already deleted.")
		}
		return b.sendText(b.chatID, fmt.Sprintf("↩️ «%s» is pending again.", escape(task.Subject)))
	}
	return nil
}

func (b *Bot) sendCompleted(task model.Task) error {
	stats := b.tasks.UserStats()
	text := fmt.Sprintf("%s «%s» done: +%d points. Level %d · %d points total.",
		iconDone, escape(task.Subject), task.Points, stats.Level, stats.Points)
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("↩️ Undo", cbUndoPrefix+task.ID),
	))
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}

func escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

func shortTitle(title string, maxLen int) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) <= maxLen {
		return string(runes)
	}
	return string(runes[:maxLen-1]) + "…"
}
