package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrShuttingDown is returned when work is submitted after Shutdown.
var ErrShuttingDown = errors.New("task runner is shutting down")

// TaskRunnerOptions groups dependencies for TaskRunner.
type TaskRunnerOptions struct {
	Logger *slog.Logger
}

// TaskRunner runs named background tasks on a context that lives as long as
// the server, not the request that started them.
type TaskRunner struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu      sync.Mutex
	closed  bool
	running int
	wg      sync.WaitGroup
}

// NewTaskRunner constructs a TaskRunner.
func NewTaskRunner(opts TaskRunnerOptions) *TaskRunner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskRunner{
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With("component", "task_runner"),
	}
}

// Go starts fn in a goroutine. Panics are recovered and logged.
func (r *TaskRunner) Go(name string, fn func(ctx context.Context)) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrShuttingDown
	}
	r.running++
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("background task panicked",
					"task", name,
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)
			}
			r.mu.Lock()
			r.running--
			r.mu.Unlock()
			r.wg.Done()
		}()
		fn(r.ctx)
	}()
	return nil
}

// Running returns the number of tasks in flight.
func (r *TaskRunner) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Shutdown stops accepting tasks, cancels the shared context and waits for
// running tasks until ctx expires.
func (r *TaskRunner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %d background tasks: %w", r.Running(), ctx.Err())
	}
}
