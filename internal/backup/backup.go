package backup

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"study-reminder/internal/model"
)

const (
	filePrefix = "study-backup-"
	fileExt    = ".json"
)

// Store reads and writes export bundles as JSON files under one directory.
// Use afero.NewOsFs() in production and afero.NewMemMapFs() in tests.
type Store struct {
	fs  afero.Fs
	dir string
}

func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// NewOsStore creates a Store on the real filesystem.
func NewOsStore(dir string) *Store {
	return NewStore(afero.NewOsFs(), dir)
}

// FileName is the default name for a bundle, derived from its export date.
func FileName(b model.Backup) string {
	return filePrefix + b.ExportDate.UTC().Format("20060102-150405") + fileExt
}

// Write stores b at path; an empty path picks FileName inside the store directory.
// It returns the path written.
func (s *Store) Write(b model.Backup, path string) (string, error) {
	if path == "" {
		path = filepath.Join(s.dir, FileName(b))
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	payload, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write backup %s: %w", path, err)
	}
	return path, nil
}

// Read loads a bundle; an empty path reads the most recent bundle in the store directory.
func (s *Store) Read(path string) (model.Backup, error) {
	if path == "" {
		latest, err := s.Latest()
		if err != nil {
			return model.Backup{}, err
		}
		path = latest
	}

	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return model.Backup{}, fmt.Errorf("check backup %s: %w", path, err)
	}
	if !exists {
		return model.Backup{}, model.ErrBackupNotFound
	}
	raw, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return model.Backup{}, fmt.Errorf("read backup %s: %w", path, err)
	}

	var b model.Backup
	if err := json.Unmarshal(raw, &b); err != nil {
		return model.Backup{}, model.WrapError(model.ErrCodeInvalid, model.ErrInvalidBackup.Message, err)
	}
	return b, nil
}

// Latest returns the path of the newest bundle in the store directory.
func (s *Store) Latest() (string, error) {
	exists, err := afero.DirExists(s.fs, s.dir)
	if err != nil {
		return "", fmt.Errorf("check backup directory: %w", err)
	}
	if !exists {
		return "", model.ErrBackupNotFound
	}
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return "", fmt.Errorf("list backups: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", model.ErrBackupNotFound
	}
	// Timestamped names sort chronologically.
	sort.Strings(names)
	return filepath.Join(s.dir, names[len(names)-1]), nil
}
