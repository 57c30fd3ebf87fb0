// Package workers runs background tasks (self-value scoring,
// post-supplement description rewrites) on a small bounded pool. When
// the pool is saturated the task runs synchronously on the caller's
// goroutine instead of being dropped, trading occasional latency for
// guaranteed completion.
package workers

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

type Pool struct {
	sem    *semaphore.Weighted
	max    int64
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewPool(size int, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		sem:    semaphore.NewWeighted(int64(size)),
		max:    int64(size),
		logger: logger,
	}
}

// Submit schedules task on the pool, or runs it inline when no slot is
// free. Panics are contained so a bad task cannot take down a request.
func (p *Pool) Submit(name string, task func()) {
	run := func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("background task panicked", "task", name, "panic", r)
			}
		}()
		task()
	}

	if !p.sem.TryAcquire(1) {
		p.logger.Warn("worker pool saturated, running task inline", "task", name)
		run()
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		run()
	}()
}

// Shutdown waits for in-flight tasks, bounded by ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
