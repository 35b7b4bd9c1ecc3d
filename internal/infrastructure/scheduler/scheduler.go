// Package scheduler runs periodic maintenance tasks in the background.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of periodic work. Run must honor ctx cancellation.
type Task struct {
	Name     string
	Interval time.Duration
	// RunAtStart fires once immediately instead of waiting a full interval
	RunAtStart bool
	Run        func(ctx context.Context) error
}

// Scheduler ticks every registered task on its own goroutine. A tick that
// arrives while the previous run of the same task is still busy is dropped.
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New creates a new scheduler with no jobs
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger.Named("scheduler")}
}

// Add registers a task; tasks with a non-positive interval are skipped.
// Add must be called before Start.
func (s *Scheduler) Add(t Task) error {
	if t.Run == nil || t.Name == "" {
		return errors.New("scheduler: task needs a name and a run function")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return errors.New("scheduler: already started")
	}
	if t.Interval <= 0 {
		s.logger.Info("Task disabled", zap.String("task", t.Name))
		return nil
	}
	s.tasks = append(s.tasks, t)
	return nil
}

// Start launches the task loops. Calling it twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.runLoop(ctx, t)
	}
	s.logger.Info("Scheduler started", zap.Int("tasks", len(s.tasks)))
}

// Stop cancels every loop and waits for in-flight runs, bounded by ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runLoop(ctx context.Context, t Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	if t.RunAtStart {
		s.runOnce(ctx, t)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, t)
		}
	}
}

// runOnce is synchronous inside the task loop, so runs of one task never overlap
func (s *Scheduler) runOnce(ctx context.Context, t Task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Task panicked", zap.String("task", t.Name), zap.Any("panic", r))
		}
	}()

	err := t.Run(ctx)
	fields := []zap.Field{zap.String("task", t.Name), zap.Duration("duration", time.Since(start))}
	switch {
	case err == nil:
		s.logger.Debug("Task finished", fields...)
	case errors.Is(err, context.Canceled):
		s.logger.Debug("Task cancelled", fields...)
	default:
		s.logger.Warn("Task failed", append(fields, zap.Error(err))...)
	}
}
