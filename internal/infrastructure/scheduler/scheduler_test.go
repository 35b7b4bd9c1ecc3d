package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestScheduler_RunsTasksUntilStopped(t *testing.T) {
	s := New(zap.NewNop())
	var runs atomic.Int32
	require.NoError(t, s.Add(Task{
		Name:       "count",
		Interval:   5 * time.Millisecond,
		RunAtStart: true,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}))

	s.Start(context.Background())
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "no runs after Stop")
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_Add(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.Add(Task{Name: "nameless-run"}))
	assert.Error(t, s.Add(Task{Run: func(context.Context) error { return nil }}))

	require.NoError(t, s.Add(Task{Name: "off", Interval: -1, Run: func(context.Context) error { return nil }}))
	assert.Empty(t, s.tasks)

	s.Start(context.Background())
	defer func() { _ = s.Stop(context.Background()) }()
	assert.Error(t, s.Add(Task{Name: "late", Interval: time.Second, Run: func(context.Context) error { return nil }}))
}

func TestScheduler_FailuresAndPanicsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := New(zap.New(core))
	var calls atomic.Int32
	require.NoError(t, s.Add(Task{
		Name:       "flaky",
		Interval:   time.Hour,
		RunAtStart: true,
		Run: func(context.Context) error {
			if calls.Add(1) == 1 {
				return errors.New("boom")
			}
			return nil
		},
	}))
	require.NoError(t, s.Add(Task{
		Name:       "panicky",
		Interval:   time.Hour,
		RunAtStart: true,
		Run:        func(context.Context) error { panic("bad") },
	}))

	s.Start(context.Background())
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("Task failed").Len() == 1 && logs.FilterMessage("Task panicked").Len() == 1
	}, time.Second, time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_StopHonorsDeadline(t *testing.T) {
	s := New(nil)
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, s.Add(Task{
		Name:       "stuck",
		Interval:   time.Hour,
		RunAtStart: true,
		Run: func(context.Context) error {
			close(started)
			<-release
			return nil
		},
	}))
	s.Start(context.Background())
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
	close(release)
}
