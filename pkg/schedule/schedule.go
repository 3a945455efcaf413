// Package schedule runs recurring maintenance tasks on fixed intervals.
//
//	s := schedule.New()
//	s.Every(time.Hour).Name("auth:purge-tokens").Run(purge)
//	s.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rainbowartistery/atelier/pkg/logger"
)

// Task is a scheduled unit of work. ctx is cancelled when the scheduler stops.
type Task func(ctx context.Context) error

type entry struct {
	id       string
	interval time.Duration
	task     Task

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Scheduler dispatches registered entries from a single ticker.
type Scheduler struct {
	tick time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
}

// New returns a scheduler that checks for due entries every second.
func New() *Scheduler {
	return &Scheduler{tick: time.Second, now: time.Now}
}

// Builder configures one entry before Run registers it.
type Builder struct {
	s *Scheduler
	e *entry
}

// Every starts an entry that runs once at start and then every d.
func (s *Scheduler) Every(d time.Duration) *Builder {
	return &Builder{s: s, e: &entry{interval: d}}
}

// Name sets the id used in logs and List.
func (b *Builder) Name(id string) *Builder {
	b.e.id = id
	return b
}

// Run registers fn.
func (b *Builder) Run(fn Task) {
	b.e.task = fn
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
}

// Start dispatches due entries in the background until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
	logger.Info("schedule: started", "entries", len(s.List()))
}

// Wait blocks until the loop and every running task have returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	s.dispatchDue(ctx, s.now())
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("schedule: stopped")
			return
		case <-ticker.C:
			s.dispatchDue(ctx, s.now())
		}
	}
}

func (s *Scheduler) dispatchDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	current := make([]*entry, len(s.entries))
	copy(current, s.entries)
	s.mu.Unlock()

	for _, e := range current {
		s.dispatch(ctx, e, now)
	}
}

// dispatch starts e if it is due and not already running. A slow task
// never overlaps with itself.
func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) {
	e.mu.Lock()
	if e.running || (!e.lastRun.IsZero() && now.Sub(e.lastRun) < e.interval) {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
		}()

		start := time.Now()
		if err := e.task(ctx); err != nil {
			logger.Warn("schedule: task failed", "id", e.id, "error", err)
			return
		}
		logger.Debug("schedule: task done", "id", e.id, "took", time.Since(start))
	}()
}

// List describes every registered entry as "id [interval]".
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, e.interval))
	}
	return out
}
