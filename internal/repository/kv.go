package repository

import (
	"context"
	"encoding/json"
	"fmt"
)

// Document keys. Each key holds one JSON document.
const (
	KeyTasks         = "@study_tasks"
	KeyCategories    = "@study_categories"
	KeyGoals         = "@study_goals"
	KeySessions      = "@study_sessions"
	KeyUserStats     = "@user_stats"
	KeyBackup        = "@study_backup"
	KeyNotifications = "@notifications_enabled"
)

// KV is the persistence adapter every store writes through.
type KV interface {
	// Get returns the stored value and false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

func loadJSON[T any](ctx context.Context, kv KV, key string) (T, bool, error) {
	var out T
	raw, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, true, nil
}

func saveJSON(ctx context.Context, kv KV, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
