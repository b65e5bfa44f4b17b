package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/statushub/statushub/internal/probe"
	"github.com/statushub/statushub/internal/status"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// stubRunner lets tests script per-probe outcomes
type stubRunner struct {
	fn func(ctx context.Context, spec probe.Spec) status.ProbeResult
}

func (s stubRunner) Run(ctx context.Context, spec probe.Spec) status.ProbeResult {
	return s.fn(ctx, spec)
}

func registerExec(t *testing.T, reg *probe.Registry, name string, timeoutMS int) {
	t.Helper()
	err := reg.Register(probe.Spec{
		Name:      name,
		Kind:      probe.KindExec,
		Command:   "/usr/bin/true",
		TimeoutMS: timeoutMS,
	})
	if err != nil {
		t.Fatalf("failed to register %s: %v", name, err)
	}
}

func TestCollect_CompletenessInvariant(t *testing.T) {
	reg := probe.NewRegistry(testLogger())
	for _, name := range []string{"cpu", "gpu", "disk", "net"} {
		registerExec(t, reg, name, 1000)
	}

	// gpu and net fail, the others succeed
	runner := stubRunner{fn: func(_ context.Context, spec probe.Spec) status.ProbeResult {
		switch spec.Name {
		case "gpu":
			return status.Failed(spec.Name, status.FailureTimeout, "deadline exceeded", "", time.Second)
		case "net":
			return status.Failed(spec.Name, status.FailureSpawn, "no such binary", "", 0)
		default:
			return status.Success(spec.Name, "{}", map[string]interface{}{}, time.Millisecond)
		}
	}}

	agg := New(reg, runner, 2, testLogger())

	if agg.Current() != nil {
		t.Fatal("expected nil snapshot before first cycle")
	}

	snap := agg.Collect(context.Background())

	if len(snap.Results) != 4 {
		t.Fatalf("expected one result per registered spec, got %d", len(snap.Results))
	}
	for _, name := range []string{"cpu", "gpu", "disk", "net"} {
		if _, ok := snap.Result(name); !ok {
			t.Errorf("missing entry for %s", name)
		}
	}
	if snap.FailureCount() != 2 {
		t.Errorf("expected 2 failures, got %d", snap.FailureCount())
	}
	if agg.Current() != snap {
		t.Error("expected Collect to swap the current snapshot")
	}
}

func TestCollect_RunnerPanicIsolated(t *testing.T) {
	reg := probe.NewRegistry(testLogger())
	registerExec(t, reg, "cpu", 1000)
	registerExec(t, reg, "haunted", 1000)

	runner := stubRunner{fn: func(_ context.Context, spec probe.Spec) status.ProbeResult {
		if spec.Name == "haunted" {
			panic("runner bug")
		}
		return status.Success(spec.Name, "{}", map[string]interface{}{}, 0)
	}}

	agg := New(reg, runner, 2, testLogger())
	snap := agg.Collect(context.Background())

	if len(snap.Results) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap.Results))
	}
	haunted, _ := snap.Result("haunted")
	if haunted.OK {
		t.Error("expected panicking runner folded into a failure entry")
	}
	cpu, _ := snap.Result("cpu")
	if !cpu.OK {
		t.Error("expected other probes unaffected by the panic")
	}
}

func TestCollect_ParallelismBounded(t *testing.T) {
	reg := probe.NewRegistry(testLogger())
	for i := 0; i < 6; i++ {
		registerExec(t, reg, fmt.Sprintf("probe-%d", i), 1000)
	}

	var active, maxActive atomic.Int32
	runner := stubRunner{fn: func(_ context.Context, spec probe.Spec) status.ProbeResult {
		n := active.Add(1)
		for {
			cur := maxActive.Load()
			if n <= cur || maxActive.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		active.Add(-1)
		return status.Success(spec.Name, "{}", map[string]interface{}{}, 0)
	}}

	agg := New(reg, runner, 2, testLogger())
	agg.Collect(context.Background())

	if got := maxActive.Load(); got > 2 {
		t.Errorf("parallelism cap exceeded: %d concurrent probes", got)
	}
}

func TestCollect_TimeoutScenario(t *testing.T) {
	// Real exec probes: "cpu" answers immediately, "gpu" hangs past its
	// 1s deadline. The snapshot must arrive within roughly the deadline
	// and carry cpu=Success, gpu=Failure(Timeout).
	tmpDir := t.TempDir()

	cpuScript := filepath.Join(tmpDir, "cpu.sh")
	if err := os.WriteFile(cpuScript, []byte("#!/bin/sh\necho '{\"percent\": 42.0}'\n"), 0755); err != nil {
		t.Fatalf("failed to write cpu script: %v", err)
	}
	gpuScript := filepath.Join(tmpDir, "gpu.sh")
	if err := os.WriteFile(gpuScript, []byte("#!/bin/sh\nsleep 2\necho '{}'\n"), 0755); err != nil {
		t.Fatalf("failed to write gpu script: %v", err)
	}

	reg := probe.NewRegistry(testLogger())
	if err := reg.Register(probe.Spec{Name: "cpu", Kind: probe.KindExec, Command: cpuScript, TimeoutMS: 2000}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(probe.Spec{Name: "gpu", Kind: probe.KindExec, Command: gpuScript, TimeoutMS: 1000}); err != nil {
		t.Fatal(err)
	}

	agg := New(reg, probe.NewMultiRunner(probe.JSONDecoder{}, testLogger()), 4, testLogger())

	start := time.Now()
	snap := agg.Collect(context.Background())
	elapsed := time.Since(start)

	cpu, _ := snap.Result("cpu")
	if !cpu.OK || cpu.Value["percent"] != 42.0 {
		t.Errorf("expected cpu success with percent 42.0, got %+v", cpu)
	}

	gpu, _ := snap.Result("gpu")
	if gpu.OK || gpu.Failure != status.FailureTimeout {
		t.Errorf("expected gpu timeout, got %+v", gpu)
	}

	if elapsed > 1800*time.Millisecond {
		t.Errorf("cycle took %v, expected ~1s (gpu deadline) plus overhead", elapsed)
	}
}

func TestAggregator_SequenceAndLastGood(t *testing.T) {
	reg := probe.NewRegistry(testLogger())
	registerExec(t, reg, "cpu", 1000)

	var failNow atomic.Bool
	runner := stubRunner{fn: func(_ context.Context, spec probe.Spec) status.ProbeResult {
		if failNow.Load() {
			return status.Failed(spec.Name, status.FailureDecode, "garbled", "", 0)
		}
		return status.Success(spec.Name, `{"percent": 10}`, map[string]interface{}{"percent": 10.0}, 0)
	}}

	agg := New(reg, runner, 1, testLogger())

	first := agg.Collect(context.Background())
	failNow.Store(true)
	second := agg.Collect(context.Background())

	if first.Sequence != 1 || second.Sequence != 2 {
		t.Errorf("expected sequences 1 and 2, got %d and %d", first.Sequence, second.Sequence)
	}
	if agg.Current() != second {
		t.Error("expected current snapshot to be the latest")
	}
	if agg.Previous() != first {
		t.Error("expected previous snapshot retained for delta comparison")
	}

	cur, _ := second.Result("cpu")
	if cur.OK {
		t.Fatal("expected second cycle to fail")
	}

	good, ok := agg.LastGood("cpu")
	if !ok || !good.OK || good.Value["percent"] != 10.0 {
		t.Errorf("expected last-known-good from first cycle, got %+v (ok=%v)", good, ok)
	}
}
