package pipeline

import (
	"context"
	"sync"

	"github.com/jonesrussell/shopcrawl/internal/logger"
)

const defaultMaxConcurrentTasks = 4

// TaskRunner detaches background tasks from their triggering request. Tasks
// run to completion on a fresh context, bounded by a semaphore, and are
// tracked so shutdown can wait for them.
type TaskRunner struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	logger logger.Interface
}

// NewTaskRunner creates a TaskRunner allowing maxConcurrent tasks at once.
func NewTaskRunner(maxConcurrent int, log logger.Interface) *TaskRunner {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentTasks
	}

	return &TaskRunner{
		sem:    make(chan struct{}, maxConcurrent),
		logger: log,
	}
}

// Detach starts fn in the background and returns immediately. The task
// receives a background context so it outlives the triggering request.
// When all slots are busy the task waits for one before running.
func (r *TaskRunner) Detach(name string, fn func(ctx context.Context)) {
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		r.sem <- struct{}{}
		defer func() { <-r.sem }()

		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("background task panicked", "task", name, "panic", rec)
			}
		}()

		fn(context.Background())
	}()
}

// Wait blocks until all detached tasks have finished.
func (r *TaskRunner) Wait() {
	r.wg.Wait()
}
