package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"study-reminder/internal/model"
	"study-reminder/internal/repository"
)

// SessionService tracks time actually spent studying.
type SessionService struct {
	base
	repo *repository.SessionRepository

	mu       sync.Mutex
	sessions []model.StudySession
}

func NewSessionService(repo *repository.SessionRepository, opts ...Option) *SessionService {
	return &SessionService{base: newBase(opts), repo: repo}
}

func (s *SessionService) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
}

// reloadLocked re-reads the stored sessions before a mutation; on failure the cache is kept.
func (s *SessionService) reloadLocked(ctx context.Context) {
	sessions, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("load sessions", zap.Error(err))
		return
	}
	s.sessions = sessions
}

// StartSession opens a session for taskID at the current time.
func (s *SessionService) StartSession(ctx context.Context, taskID, notes string) *model.StudySession {
	session := model.StudySession{
		ID:        s.newID(),
		TaskID:    taskID,
		StartTime: s.now(),
		Notes:     notes,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
	s.sessions = append(s.sessions, session)
	s.persistLocked(ctx)
	return &session
}

// EndSession closes a session; duration is whole elapsed minutes, rounded down.
// Ending an already-ended session returns it unchanged; unknown ids yield nil.
func (s *SessionService) EndSession(ctx context.Context, id string) *model.StudySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
	for i := range s.sessions {
		session := &s.sessions[i]
		if session.ID != id {
			continue
		}
		if session.EndTime == nil {
			end := s.now()
			session.EndTime = &end
			session.Duration = elapsedMinutes(session.StartTime, end)
			session.Completed = true
			s.persistLocked(ctx)
		}
		out := *session
		return &out
	}
	return nil
}

func elapsedMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// Active returns the most recently started open session, if any.
func (s *SessionService) Active() (model.StudySession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.sessions) - 1; i >= 0; i-- {
		if s.sessions[i].EndTime == nil {
			return s.sessions[i], true
		}
	}
	return model.StudySession{}, false
}

func (s *SessionService) Sessions() []model.StudySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.StudySession(nil), s.sessions...)
}

// ReplaceSessions overwrites the whole list; used by backup import.
func (s *SessionService) ReplaceSessions(ctx context.Context, sessions []model.StudySession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]model.StudySession(nil), sessions...)
	s.persistLocked(ctx)
}

// TotalMinutes sums the duration of completed sessions, optionally for one task.
func (s *SessionService) TotalMinutes(taskID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, session := range s.sessions {
		if !session.Completed || (taskID != "" && session.TaskID != taskID) {
			continue
		}
		total += session.Duration
	}
	return total
}

func (s *SessionService) persistLocked(ctx context.Context) {
	sessions := s.sessions
	if sessions == nil {
		sessions = []model.StudySession{}
	}
	if err := s.repo.SaveAll(ctx, sessions); err != nil {
		s.logger.Error("save sessions", zap.Error(err))
	}
}
