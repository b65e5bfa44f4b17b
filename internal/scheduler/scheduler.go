// Package scheduler triggers aggregation cycles on a fixed interval and on
// demand, guaranteeing that cycles never overlap.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/statushub/statushub/internal/status"
)

// State reports whether a cycle is in progress
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Collector produces a snapshot from one full probe cycle
type Collector interface {
	Collect(ctx context.Context) *status.Snapshot
}

// Publisher receives each composed snapshot, or a cycle-level error when a
// cycle could not complete
type Publisher interface {
	Publish(snap *status.Snapshot)
	PublishError(err error)
}

// Scheduler is a single-flight cycle driver. Transitions to Running happen
// only from Idle; trigger requests that arrive while Running are coalesced
// into at most one follow-up cycle.
type Scheduler struct {
	collector Collector
	publisher Publisher
	logger    *slog.Logger

	// baseCtx bounds every cycle; cancelling it is the full-shutdown
	// signal that reaches in-flight probes
	baseCtx context.Context

	mu       sync.Mutex
	interval time.Duration
	started  bool
	running  bool
	pending  bool
	stopCh   chan struct{}

	wg sync.WaitGroup
}

// New creates a scheduler. Cycles derive their context from ctx, so
// cancelling it terminates in-flight probes; Stop alone does not.
func New(ctx context.Context, collector Collector, publisher Publisher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		collector: collector,
		publisher: publisher,
		logger:    logger.With("component", "scheduler"),
		baseCtx:   ctx,
	}
}

// Start begins interval-driven cycles, firing one immediately
func (s *Scheduler) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", interval)
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}
	s.started = true
	s.interval = interval
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.logger.Info("scheduler starting", "interval", interval)

	s.requestCycle()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.baseCtx.Done():
				return
			case <-stopCh:
				return
			case <-ticker.C:
				s.requestCycle()
			}
		}
	}()

	return nil
}

// Stop cancels the repeating timer. An in-flight cycle finishes and
// publishes; no further cycles are scheduled until Start is called again.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.pending = false
	close(s.stopCh)
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// TriggerNow requests an immediate cycle. Returns true if a new cycle was
// started, false if the request was coalesced into the one already running
// (whose result will arrive as usual).
func (s *Scheduler) TriggerNow() bool {
	return s.requestCycle()
}

// State returns Running while a cycle is in progress
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return StateRunning
	}
	return StateIdle
}

// Started reports whether the interval timer is active
func (s *Scheduler) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Interval returns the configured interval, zero before the first Start
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Wait blocks until any in-flight cycle has finished. Used on shutdown.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// requestCycle starts a cycle if Idle; while Running it records at most
// one pending follow-up
func (s *Scheduler) requestCycle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.baseCtx.Err() != nil {
		return false
	}

	if s.running {
		if !s.pending {
			s.pending = true
			s.logger.Debug("cycle request coalesced")
		}
		return false
	}

	s.running = true
	s.wg.Add(1)
	go s.cycleLoop()

	return true
}

// cycleLoop runs cycles until no pending request remains
func (s *Scheduler) cycleLoop() {
	defer s.wg.Done()

	for {
		start := time.Now()
		snap := s.collector.Collect(s.baseCtx)

		// A cycle cut short by shutdown yields a snapshot full of
		// cancellation failures; subscribers get the error instead
		if err := s.baseCtx.Err(); err != nil {
			s.publisher.PublishError(fmt.Errorf("cycle aborted: %w", err))
		} else if snap != nil {
			s.publisher.Publish(snap)
		}

		s.logger.Debug("cycle published",
			"elapsed", time.Since(start),
		)

		s.mu.Lock()
		if s.pending && s.baseCtx.Err() == nil {
			s.pending = false
			s.mu.Unlock()
			continue
		}
		s.running = false
		s.pending = false
		s.mu.Unlock()
		return
	}
}
