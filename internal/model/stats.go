package model

import "time"

// UserStats is the persisted points accumulator. Level is always derived from Points.
type UserStats struct {
	Level  int `json:"level"`
	Points int `json:"points"`
}

// BackupVersion is written into every exported bundle.
const BackupVersion = "1.0"

// Backup is the export bundle. Pointer fields let import tell absent from empty.
type Backup struct {
	Tasks      *[]Task         `json:"tasks,omitempty"`
	Sessions   *[]StudySession `json:"sessions,omitempty"`
	UserStats  *UserStats      `json:"userStats,omitempty"`
	ExportDate time.Time       `json:"exportDate"`
	Version    string          `json:"version"`
}
