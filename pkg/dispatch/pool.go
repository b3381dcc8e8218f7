// Package dispatch runs automation workflows on a bounded pool of
// goroutines. Browser-driver calls are blocking RPCs, so callers must
// never run a workflow inline: they submit it and await the returned
// future. Workflows for the same account are serialized with a
// per-account lock, because they share one session and one tab.
package dispatch

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"redpilot/pkg/logging"
)

// Pool bounds how many workflows run at once across all accounts.
type Pool struct {
	slots *semaphore.Weighted
	log   *logging.Logger

	mu       sync.Mutex
	accounts map[string]*sync.Mutex
}

// NewPool creates a pool allowing up to size concurrent workflows.
func NewPool(size int64, log *logging.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		slots:    semaphore.NewWeighted(size),
		log:      log,
		accounts: make(map[string]*sync.Mutex),
	}
}

// accountLock returns the mutex serializing workflows for one account,
// creating it on first use. Locks are never removed; the per-account
// footprint is one mutex.
func (p *Pool) accountLock(accountID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.accounts[accountID]
	if !ok {
		lock = &sync.Mutex{}
		p.accounts[accountID] = lock
	}
	return lock
}

// Future is the pending result of a submitted workflow.
type Future[T any] struct {
	done   chan struct{}
	result T
	err    error
}

// Wait blocks until the workflow finishes or the context is done. The
// workflow itself keeps running after a context timeout; only the wait
// is abandoned.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit schedules fn on the pool and returns its future. The context
// bounds the wait for a free slot and the per-account lock, not the
// workflow itself: once fn starts it runs to completion.
func Submit[T any](p *Pool, ctx context.Context, accountID string, fn func() (T, error)) *Future[T] {
	future := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(future.done)

		if err := p.slots.Acquire(ctx, 1); err != nil {
			future.err = err
			return
		}
		defer p.slots.Release(1)

		lock := p.accountLock(accountID)
		lock.Lock()
		defer lock.Unlock()

		if err := ctx.Err(); err != nil {
			future.err = err
			return
		}

		p.log.Debugf("dispatching workflow for account %s", accountID)
		future.result, future.err = fn()
	}()

	return future
}

// SubmitErr schedules a workflow that produces no value.
func SubmitErr(p *Pool, ctx context.Context, accountID string, fn func() error) *Future[struct{}] {
	return Submit(p, ctx, accountID, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}
