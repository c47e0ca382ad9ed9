package pipeline_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/shopcrawl/internal/logger"
	"github.com/jonesrussell/shopcrawl/internal/pipeline"
)

func TestTaskRunner_RunsDetachedTasks(t *testing.T) {
	runner := pipeline.NewTaskRunner(2, logger.NewNoOp())

	var count atomic.Int32
	for i := 0; i < 5; i++ {
		runner.Detach("task", func(ctx context.Context) {
			count.Add(1)
		})
	}

	runner.Wait()
	assert.Equal(t, int32(5), count.Load())
}

func TestTaskRunner_BoundsConcurrency(t *testing.T) {
	runner := pipeline.NewTaskRunner(2, logger.NewNoOp())

	var mu sync.Mutex
	running, peak := 0, 0

	for i := 0; i < 6; i++ {
		runner.Detach("task", func(ctx context.Context) {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
		})
	}

	runner.Wait()
	assert.LessOrEqual(t, peak, 2)
	assert.Positive(t, peak)
}

func TestTaskRunner_RecoversFromPanic(t *testing.T) {
	runner := pipeline.NewTaskRunner(1, logger.NewNoOp())

	var after atomic.Bool
	runner.Detach("panics", func(ctx context.Context) {
		panic("boom")
	})
	runner.Detach("survives", func(ctx context.Context) {
		after.Store(true)
	})

	runner.Wait()
	assert.True(t, after.Load())
}

func TestTaskRunner_TaskGetsLiveContext(t *testing.T) {
	runner := pipeline.NewTaskRunner(1, logger.NewNoOp())

	var ctxErr error
	runner.Detach("task", func(ctx context.Context) {
		ctxErr = ctx.Err()
	})

	runner.Wait()
	assert.NoError(t, ctxErr)
}
