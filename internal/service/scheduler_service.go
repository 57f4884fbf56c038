package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService owns the cron runner shared by reminders and the daemon jobs.
type SchedulerService struct {
	cron *cron.Cron
	loc  *time.Location
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	if loc == nil {
		loc = time.Local
	}
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		loc:  loc,
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(timeStr string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// ScheduleOnce registers a job that runs a single time at at. Once it has
// fired the entry stays idle until removed.
func (s *SchedulerService) ScheduleOnce(at time.Time, job func()) (cron.EntryID, error) {
	return s.cron.Schedule(onceSchedule{at: at.In(s.loc)}, cron.FuncJob(job)), nil
}

// onceSchedule is a cron.Schedule that activates at one instant, year included.
type onceSchedule struct {
	at time.Time
}

func (o onceSchedule) Next(t time.Time) time.Time {
	if t.Before(o.at) {
		return o.at
	}
	return time.Time{}
}

// Remove drops a scheduled entry; unknown ids are ignored by cron.
func (s *SchedulerService) Remove(id cron.EntryID) {
	s.cron.Remove(id)
}

// Next reports when entry id fires next; zero if it is not scheduled or the scheduler is stopped.
func (s *SchedulerService) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *SchedulerService) Location() *time.Location {
	return s.loc
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ScheduleInterval runs job every interval, rounded down to whole seconds.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", interval)
	}
	return s.cron.Schedule(cron.Every(interval.Truncate(time.Second)), cron.FuncJob(job)), nil
}

// buildDailySpec turns "HH:MM" into a seconds-precision cron spec.
func buildDailySpec(timeStr string) (string, error) {
	at, err := time.Parse("15:04", strings.TrimSpace(timeStr))
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	return fmt.Sprintf("0 %d %d * * *", at.Minute(), at.Hour()), nil
}
