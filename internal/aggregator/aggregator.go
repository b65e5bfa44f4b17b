// Package aggregator runs the registered probes each cycle and composes
// their results into a single Snapshot.
package aggregator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/statushub/statushub/internal/probe"
	"github.com/statushub/statushub/internal/status"
)

// Aggregator owns the current snapshot. Probes run concurrently per cycle,
// bounded by a semaphore so a large probe set cannot spike the host.
type Aggregator struct {
	registry *probe.Registry
	runner   probe.Runner
	logger   *slog.Logger

	// Semaphore for concurrency control
	sem chan struct{}

	seq      atomic.Uint64
	current  atomic.Pointer[status.Snapshot]
	previous atomic.Pointer[status.Snapshot]

	// lastGood retains the most recent Success per probe across cycles
	goodMu   sync.RWMutex
	lastGood map[string]status.ProbeResult
}

// New creates an aggregator. Parallelism caps how many probes run at once.
func New(registry *probe.Registry, runner probe.Runner, parallelism int, logger *slog.Logger) *Aggregator {
	if parallelism < 1 {
		parallelism = 4
	}

	return &Aggregator{
		registry: registry,
		runner:   runner,
		logger:   logger.With("component", "aggregator"),
		sem:      make(chan struct{}, parallelism),
		lastGood: make(map[string]status.ProbeResult),
	}
}

// Collect runs every registered probe and returns the composed snapshot
// after swapping it in as current. The snapshot always carries exactly one
// result per registered spec; individual failures degrade only their own
// entry.
func (a *Aggregator) Collect(ctx context.Context) *status.Snapshot {
	specs := a.registry.List()
	results := make([]status.ProbeResult, len(specs))

	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec probe.Spec) {
			defer wg.Done()

			select {
			case a.sem <- struct{}{}:
				defer func() { <-a.sem }()
			case <-ctx.Done():
				results[i] = status.Failed(spec.Name, status.FailureTimeout,
					"aggregation cancelled before probe started", "", 0)
				return
			}

			results[i] = a.runProbe(ctx, spec)
		}(i, spec)
	}
	wg.Wait()

	snap := status.NewSnapshot(a.seq.Add(1), results)

	a.goodMu.Lock()
	for _, r := range results {
		if r.OK {
			a.lastGood[r.Probe] = r
		}
	}
	a.goodMu.Unlock()

	// Atomic swap: readers see either the old snapshot or the new one,
	// never a partial state
	a.previous.Store(a.current.Load())
	a.current.Store(snap)

	a.logger.Info("cycle completed",
		"cycle_id", snap.CycleID,
		"sequence", snap.Sequence,
		"probes", len(results),
		"failures", snap.FailureCount(),
	)

	return snap
}

// runProbe shields the cycle from a runner that panics; the failure is
// folded into the snapshot like any other probe failure.
func (a *Aggregator) runProbe(ctx context.Context, spec probe.Spec) (result status.ProbeResult) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("probe runner panicked",
				"probe", spec.Name,
				"panic", rec,
			)
			result = status.Failed(spec.Name, status.FailureSpawn,
				"probe runner panicked", "", 0)
		}
	}()

	return a.runner.Run(ctx, spec)
}

// Current returns the last composed snapshot, or nil before the first
// cycle completes
func (a *Aggregator) Current() *status.Snapshot {
	return a.current.Load()
}

// Previous returns the snapshot before the current one, if any
func (a *Aggregator) Previous() *status.Snapshot {
	return a.previous.Load()
}

// LastGood returns the most recent successful result for a probe
func (a *Aggregator) LastGood(name string) (status.ProbeResult, bool) {
	a.goodMu.RLock()
	defer a.goodMu.RUnlock()

	r, ok := a.lastGood[name]
	return r, ok
}
