package status

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a fully-populated set of probe results captured at one point
// in time. It carries exactly one ProbeResult per registered probe, even
// when every probe failed. Snapshots are never mutated after composition;
// the aggregator swaps in a fresh one each cycle.
type Snapshot struct {
	CycleID    uuid.UUID              `json:"cycle_id"`
	Sequence   uint64                 `json:"sequence"`
	CapturedAt time.Time              `json:"captured_at"`
	Results    map[string]ProbeResult `json:"results"`
}

// NewSnapshot composes a snapshot from a completed cycle's results
func NewSnapshot(sequence uint64, results []ProbeResult) *Snapshot {
	byProbe := make(map[string]ProbeResult, len(results))
	for _, r := range results {
		byProbe[r.Probe] = r
	}

	return &Snapshot{
		CycleID:    uuid.New(),
		Sequence:   sequence,
		CapturedAt: time.Now(),
		Results:    byProbe,
	}
}

// Result returns the entry for the named probe
func (s *Snapshot) Result(probe string) (ProbeResult, bool) {
	r, ok := s.Results[probe]
	return r, ok
}

// Probes returns the probe names in the snapshot, sorted for stable output
func (s *Snapshot) Probes() []string {
	names := make([]string, 0, len(s.Results))
	for name := range s.Results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FailureCount returns how many entries are failures
func (s *Snapshot) FailureCount() int {
	n := 0
	for _, r := range s.Results {
		if !r.OK {
			n++
		}
	}
	return n
}
