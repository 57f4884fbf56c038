package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"study-reminder/internal/model"
	"study-reminder/internal/repository"
)

var testNow = time.Date(2026, 5, 14, 10, 30, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%03d", prefix, n)
	}
}

type recordingNotifier struct {
	mu        sync.Mutex
	scheduled []string
	cancelled []string
}

func (n *recordingNotifier) Schedule(_ context.Context, task model.Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scheduled = append(n.scheduled, task.ID)
}

func (n *recordingNotifier) Cancel(_ context.Context, taskID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, taskID)
}

func newTestKV(t *testing.T) repository.KV {
	t.Helper()
	kv, err := repository.OpenBolt(filepath.Join(t.TempDir(), "study.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

type taskFixture struct {
	kv       repository.KV
	clock    *testClock
	notifier *recordingNotifier
	tasks    *TaskService
}

func newTaskFixture(t *testing.T, opts ...Option) *taskFixture {
	t.Helper()
	kv := newTestKV(t)
	clock := newTestClock(testNow)
	notifier := &recordingNotifier{}
	all := append([]Option{WithClock(clock.Now), WithIDGenerator(sequentialIDs("task"))}, opts...)
	svc := NewTaskService(repository.NewTaskRepository(kv), repository.NewSettingsRepository(kv), notifier, all...)
	return &taskFixture{kv: kv, clock: clock, notifier: notifier, tasks: svc}
}

func intPtr(v int) *int {
	return &v
}
