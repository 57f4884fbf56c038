package repository

import (
	"context"
	"encoding/json"

	"study-reminder/internal/model"
)

// SettingsRepository holds small standalone documents: the reminder switch and the backup slot.
type SettingsRepository struct {
	kv KV
}

func NewSettingsRepository(kv KV) *SettingsRepository {
	return &SettingsRepository{kv: kv}
}

// NotificationsEnabled returns the stored switch, or fallback when never saved.
func (r *SettingsRepository) NotificationsEnabled(ctx context.Context, fallback bool) (bool, error) {
	enabled, ok, err := loadJSON[bool](ctx, r.kv, KeyNotifications)
	if err != nil || !ok {
		return fallback, err
	}
	return enabled, nil
}

func (r *SettingsRepository) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	return saveJSON(ctx, r.kv, KeyNotifications, enabled)
}

func (r *SettingsRepository) SaveBackup(ctx context.Context, backup model.Backup) error {
	return saveJSON(ctx, r.kv, KeyBackup, backup)
}

// Backup returns the raw backup document so import can validate it field by field.
func (r *SettingsRepository) Backup(ctx context.Context) (json.RawMessage, bool, error) {
	raw, ok, err := r.kv.Get(ctx, KeyBackup)
	if err != nil || !ok {
		return nil, false, err
	}
	return raw, true, nil
}
