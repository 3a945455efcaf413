// Package workerpool runs background jobs on a fixed number of goroutines.
//
// Request handlers use it for work that must not hold up the response, such
// as notification mail. When every worker is busy and the queue is full,
// Submit fails fast with ErrPoolFull so the caller can log and move on.
//
//	pool := workerpool.New(4, 16)
//	defer pool.Shutdown(context.Background())
//
//	err := pool.Submit(func(ctx context.Context) {
//	    _ = mailer.Send(ctx, msg)
//	})
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rainbowartistery/atelier/pkg/logger"
)

// ErrPoolFull is returned by Submit when the queue is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned by Submit after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Job receives a context that is cancelled if Shutdown gives up waiting.
type Job func(ctx context.Context)

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks  chan Job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// New starts size workers sharing a queue of queue pending jobs. Non-positive
// values fall back to one worker and a queue of twice the worker count.
func New(size, queue int) *Pool {
	if size <= 0 {
		size = 1
	}
	if queue <= 0 {
		queue = size * 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:  make(chan Job, queue),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues job without blocking.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- job:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait is like Submit but blocks until the job is queued or ctx ends.
func (p *Pool) SubmitWait(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish. If ctx
// ends first, running jobs see their context cancelled and Shutdown returns
// ctx.Err() without waiting further. Safe to call more than once.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.tasks {
		p.run(job)
	}
}

// run executes job, recovering from panics so a bad job doesn't kill the
// worker.
func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: job panicked", "error", fmt.Sprint(r))
		}
	}()
	job(p.ctx)
}
