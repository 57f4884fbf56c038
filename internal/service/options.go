package service

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// base carries the collaborators every service shares.
type base struct {
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Option customizes a service at construction time.
type Option func(*base)

// WithLogger sets the logger used for swallowed storage and notifier failures.
func WithLogger(logger *zap.Logger) Option {
	return func(b *base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithClock replaces the wall clock; tests pin it to a fixed instant.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDGenerator replaces uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(b *base) {
		if newID != nil {
			b.newID = newID
		}
	}
}

func newBase(opts []Option) base {
	b := base{
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}
