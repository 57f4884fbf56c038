package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-reminder/internal/repository"
)

func newSessionService(t *testing.T) (*SessionService, *testClock, repository.KV) {
	t.Helper()
	kv := newTestKV(t)
	clock := newTestClock(testNow)
	svc := NewSessionService(repository.NewSessionRepository(kv), WithClock(clock.Now), WithIDGenerator(sequentialIDs("session")))
	return svc, clock, kv
}

func TestSessionService_StartEnd(t *testing.T) {
	ctx := context.Background()
	svc, clock, kv := newSessionService(t)

	started := svc.StartSession(ctx, "task-1", "chapter 2")
	assert.Equal(t, testNow, started.StartTime)
	assert.Nil(t, started.EndTime)
	assert.False(t, started.Completed)

	active, ok := svc.Active()
	require.True(t, ok)
	assert.Equal(t, started.ID, active.ID)

	clock.Advance(25*time.Minute + 59*time.Second)
	ended := svc.EndSession(ctx, started.ID)
	require.NotNil(t, ended)
	assert.Equal(t, 25, ended.Duration)
	assert.True(t, ended.Completed)
	require.NotNil(t, ended.EndTime)

	clock.Advance(time.Hour)
	again := svc.EndSession(ctx, started.ID)
	assert.Equal(t, ended, again)

	_, ok = svc.Active()
	assert.False(t, ok)
	assert.Nil(t, svc.EndSession(ctx, "missing"))

	reloaded := NewSessionService(repository.NewSessionRepository(kv))
	reloaded.Load(ctx)
	assert.Equal(t, svc.Sessions(), reloaded.Sessions())
}

func TestSessionService_TotalMinutes(t *testing.T) {
	ctx := context.Background()
	svc, clock, _ := newSessionService(t)

	a := svc.StartSession(ctx, "task-1", "")
	clock.Advance(30 * time.Minute)
	svc.EndSession(ctx, a.ID)

	b := svc.StartSession(ctx, "task-2", "")
	clock.Advance(10 * time.Minute)
	svc.EndSession(ctx, b.ID)

	svc.StartSession(ctx, "task-1", "still open")
	clock.Advance(50 * time.Minute)

	assert.Equal(t, 40, svc.TotalMinutes(""))
	assert.Equal(t, 30, svc.TotalMinutes("task-1"))
	assert.Zero(t, svc.TotalMinutes("task-3"))
}
