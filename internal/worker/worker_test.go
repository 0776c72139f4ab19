package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunsTasksBeforeShutdownReturns(t *testing.T) {
	wp := NewWorkerPool(2, 10, time.Second)

	var count atomic.Int32
	for i := 0; i < 5; i++ {
		ok := wp.Submit("count", func(ctx context.Context) error {
			count.Add(1)
			return nil
		})
		assert.True(t, ok)
	}

	wp.Shutdown()
	assert.Equal(t, int32(5), count.Load())
}

func TestWorkerPool_FailingTaskDoesNotStopWorker(t *testing.T) {
	wp := NewWorkerPool(1, 10, time.Second)

	var ran atomic.Bool
	wp.Submit("fail", func(ctx context.Context) error { return errors.New("boom") })
	wp.Submit("after", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	wp.Shutdown()
	assert.True(t, ran.Load())
}

func TestWorkerPool_DropsAfterShutdown(t *testing.T) {
	wp := NewWorkerPool(1, 1, time.Second)
	wp.Shutdown()

	ok := wp.Submit("late", func(ctx context.Context) error { return nil })
	assert.False(t, ok)

	// second shutdown is a no-op
	wp.Shutdown()
}

func TestWorkerPool_TaskGetsDeadline(t *testing.T) {
	wp := NewWorkerPool(1, 1, 50*time.Millisecond)

	var hadDeadline atomic.Bool
	wp.Submit("deadline", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		hadDeadline.Store(ok)
		return nil
	})

	wp.Shutdown()
	assert.True(t, hadDeadline.Load())
}

func TestWorkerPool_SubmitRacingShutdownDoesNotPanic(t *testing.T) {
	for i := 0; i < 50; i++ {
		wp := NewWorkerPool(2, 4, time.Second)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 20; i++ {
					assert.NotPanics(t, func() {
						wp.Submit("late", func(ctx context.Context) error { return nil })
					})
				}
			}()
		}

		wp.Shutdown()
		wg.Wait()
		assert.False(t, wp.Submit("after", func(ctx context.Context) error { return nil }))
	}
}
