package repository

import (
	"context"

	"study-reminder/internal/model"
)

// SessionRepository stores study sessions.
type SessionRepository struct {
	kv KV
}

func NewSessionRepository(kv KV) *SessionRepository {
	return &SessionRepository{kv: kv}
}

func (r *SessionRepository) List(ctx context.Context) ([]model.StudySession, error) {
	sessions, _, err := loadJSON[[]model.StudySession](ctx, r.kv, KeySessions)
	return sessions, err
}

func (r *SessionRepository) SaveAll(ctx context.Context, sessions []model.StudySession) error {
	if sessions == nil {
		sessions = []model.StudySession{}
	}
	return saveJSON(ctx, r.kv, KeySessions, sessions)
}
