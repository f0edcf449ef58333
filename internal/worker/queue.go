// Package worker runs submitted tasks one at a time, in submission order, on a
// single goroutine.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrStopped = errors.New("worker: queue stopped")

type Task func(ctx context.Context)

type Queue struct {
	tasks    chan Task
	done     chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func NewQueue(size int, logger *zap.Logger) *Queue {
	return &Queue{
		tasks:  make(chan Task, size),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Submit enqueues task, blocking while the queue is full.
func (q *Queue) Submit(ctx context.Context, task Task) error {
	select {
	case <-q.done:
		return ErrStopped
	default:
	}

	select {
	case q.tasks <- task:
		return nil
	case <-q.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes tasks until ctx is cancelled. Tasks still queued at that point
// are dropped.
func (q *Queue) Run(ctx context.Context) {
	defer q.stopOnce.Do(func() { close(q.done) })

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			q.run(ctx, task)
		}
	}
}

func (q *Queue) run(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Task panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	task(ctx)
}
