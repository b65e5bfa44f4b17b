package status

import (
	"testing"
	"time"
)

func TestNewSnapshot_OneEntryPerResult(t *testing.T) {
	results := []ProbeResult{
		Success("cpu", `{"percent": 42}`, map[string]interface{}{"percent": 42.0}, 10*time.Millisecond),
		Failed("gpu", FailureTimeout, "probe exceeded 1s deadline", "", time.Second),
		Failed("disk", FailureDecode, "output is not a JSON object", "oops", 5*time.Millisecond),
	}

	snap := NewSnapshot(7, results)

	if snap.Sequence != 7 {
		t.Errorf("expected sequence 7, got %d", snap.Sequence)
	}
	if len(snap.Results) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snap.Results))
	}
	if snap.CycleID.String() == "" {
		t.Error("expected a cycle ID")
	}

	cpu, ok := snap.Result("cpu")
	if !ok || !cpu.OK {
		t.Errorf("expected cpu success, got %+v", cpu)
	}
	gpu, ok := snap.Result("gpu")
	if !ok || gpu.OK || gpu.Failure != FailureTimeout {
		t.Errorf("expected gpu timeout failure, got %+v", gpu)
	}

	if snap.FailureCount() != 2 {
		t.Errorf("expected 2 failures, got %d", snap.FailureCount())
	}
}

func TestSnapshot_ProbesSorted(t *testing.T) {
	snap := NewSnapshot(1, []ProbeResult{
		Success("zeta", "{}", map[string]interface{}{}, 0),
		Success("alpha", "{}", map[string]interface{}{}, 0),
		Success("mid", "{}", map[string]interface{}{}, 0),
	})

	names := snap.Probes()
	want := []string{"alpha", "mid", "zeta"}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("expected probes %v, got %v", want, names)
		}
	}
}
