package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"study-reminder/internal/backup"
	"study-reminder/internal/config"
	"study-reminder/internal/repository"
	"study-reminder/internal/service"
	"study-reminder/pkg/logger"
)

// app holds the wired services for one CLI invocation.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	loc    *time.Location
	kv     repository.KV

	scheduler  *service.SchedulerService
	reminders  *service.ReminderService
	tasks      *service.TaskService
	goals      *service.GoalService
	categories *service.CategoryService
	sessions   *service.SessionService
	backups    *backup.Store
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	kv, err := repository.Open(cfg.Storage.Driver, cfg.Storage.DatabaseURL, cfg.Storage.BoltPath, log)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	opts := []service.Option{service.WithLogger(log)}
	settings := repository.NewSettingsRepository(kv)

	scheduler := service.NewSchedulerService(loc)
	reminders := service.NewReminderService(scheduler, settings, nil, service.WithLogger(log.Named("reminders")))
	reminders.Load(ctx, cfg.RemindersEnabled)

	tasks := service.NewTaskService(repository.NewTaskRepository(kv), settings, reminders, opts...)
	goals := service.NewGoalService(repository.NewGoalRepository(kv), tasks, opts...)
	categories := service.NewCategoryService(repository.NewCategoryRepository(kv), opts...)
	sessions := service.NewSessionService(repository.NewSessionRepository(kv), opts...)

	tasks.AttachSessions(sessions)
	tasks.Subscribe(goals.HandleTaskEvent)

	tasks.Load(ctx)
	goals.Load(ctx)
	categories.Load(ctx)
	sessions.Load(ctx)

	return &app{
		cfg:        cfg,
		logger:     log,
		loc:        loc,
		kv:         kv,
		scheduler:  scheduler,
		reminders:  reminders,
		tasks:      tasks,
		goals:      goals,
		categories: categories,
		sessions:   sessions,
		backups:    backup.NewOsStore(filepath.Join(cfg.DataDir, "backups")),
	}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("close storage", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// reload re-reads every document; the daemon uses it to pick up CLI edits.
func (a *app) reload(ctx context.Context) {
	a.tasks.Load(ctx)
	a.goals.Load(ctx)
	a.categories.Load(ctx)
	a.sessions.Load(ctx)
	a.goals.Refresh(ctx)
	a.reminders.Sync(ctx, a.tasks.Filter(service.FilterPending))
}
