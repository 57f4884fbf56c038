package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSQLitePath = "study_reminder.db"

// Entry is one stored document in the kv_entries table.
type Entry struct {
	Name      string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

func (Entry) TableName() string {
	return "kv_entries"
}

// SQLiteKV stores documents in a SQLite table through gorm.
type SQLiteKV struct {
	db *gorm.DB
}

// NewDB opens the SQLite database at dsn and migrates the document table.
// Slow queries and errors are reported through log at warn level.
func NewDB(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		dsn = defaultSQLitePath
	}
	if log == nil {
		log = zap.NewNop()
	}
	if dir, ok := sqliteDir(dsn); ok {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir %q: %w", dir, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(
			zap.NewStdLog(log.Named("gorm")),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return db, nil
}

// OpenSQLite opens the database at dsn and wraps it as a KV.
func OpenSQLite(dsn string, log *zap.Logger) (*SQLiteKV, error) {
	db, err := NewDB(dsn, log)
	if err != nil {
		return nil, err
	}
	return &SQLiteKV{db: db}, nil
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Where("name = ?", key).First(&entry).Error
	switch {
	case err == nil:
		return entry.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("find %s: %w", key, err)
	}
}

func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	entry := Entry{Name: key, Value: value}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("name = ?", key).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// sqliteDir returns the directory holding the database file named by dsn.
// In-memory databases and files in the working directory report false.
func sqliteDir(dsn string) (string, bool) {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return "", false
	}
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return "", false
	}
	return dir, true
}
