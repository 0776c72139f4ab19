package worker

import (
	"canvas-editor/internal/logger"
	"context"
	"sync"
	"time"
)

// Task is a function that represents a background job
type Task func(ctx context.Context) error

type WorkerPool struct {
	taskQueue   chan namedTask
	wg          sync.WaitGroup
	taskTimeout time.Duration

	// mu orders sends against close of taskQueue.
	mu        sync.RWMutex
	isClosing bool
}

type namedTask struct {
	name string
	run  Task
}

func NewWorkerPool(size int, queueSize int, taskTimeout time.Duration) *WorkerPool {
	wp := &WorkerPool{
		taskQueue:   make(chan namedTask, queueSize),
		taskTimeout: taskTimeout,
	}

	for i := 0; i < size; i++ {
		wp.wg.Add(1)
		go wp.startWorker()
	}

	return wp
}

func (wp *WorkerPool) startWorker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		wp.run(task)
	}
}

func (wp *WorkerPool) run(task namedTask) {
	ctx, cancel := context.WithTimeout(context.Background(), wp.taskTimeout)
	defer cancel()

	if err := task.run(ctx); err != nil {
		logger.Log.Error().Err(err).Str("task", task.name).Msg("worker task failed")
	}
}

// Submit queues t and reports whether it was accepted. Tasks are dropped
// once Shutdown has started or when the queue is full.
func (wp *WorkerPool) Submit(name string, t Task) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.isClosing {
		logger.Log.Warn().Str("task", name).Msg("task submitted during shutdown, dropping")
		return false
	}
	select {
	case wp.taskQueue <- namedTask{name: name, run: t}:
		return true
	default:
		logger.Log.Warn().Str("task", name).Msg("task queue full, dropping")
		return false
	}
}

// Shutdown closes the queue and waits for workers to finish
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if wp.isClosing {
		wp.mu.Unlock()
		return
	}
	wp.isClosing = true
	close(wp.taskQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
}
