// Package status defines the result and snapshot types shared by the
// aggregator, hub and API layers. A Snapshot is immutable once composed;
// a new one replaces it each cycle.
package status

import (
	"time"
)

// FailureKind classifies why a probe produced no usable payload
type FailureKind string

const (
	// FailureTimeout means the probe exceeded its deadline and was killed
	FailureTimeout FailureKind = "timeout"

	// FailureSpawn means the probe process could not be started at all
	FailureSpawn FailureKind = "spawn_failure"

	// FailureDecode means the probe ran but its output was unusable
	// (non-zero exit, non-JSON stdout, or an internal collection error)
	FailureDecode FailureKind = "decode_error"
)

// ProbeResult is the outcome of one probe execution within one cycle.
// Exactly one of Value (on success) or Failure/Message (on failure) is set.
type ProbeResult struct {
	Probe       string                 `json:"probe"`
	OK          bool                   `json:"ok"`
	Value       map[string]interface{} `json:"value,omitempty"`
	Raw         string                 `json:"raw,omitempty"`
	Failure     FailureKind            `json:"failure,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Duration    time.Duration          `json:"duration_ns"`
	CollectedAt time.Time              `json:"collected_at"`
}

// Success builds a successful result carrying the raw payload and its
// decoded form
func Success(probe, raw string, value map[string]interface{}, elapsed time.Duration) ProbeResult {
	return ProbeResult{
		Probe:       probe,
		OK:          true,
		Value:       value,
		Raw:         raw,
		Duration:    elapsed,
		CollectedAt: time.Now(),
	}
}

// Failed builds a failure result. The snippet is optional diagnostic
// output (already truncated by the caller).
func Failed(probe string, kind FailureKind, message, snippet string, elapsed time.Duration) ProbeResult {
	return ProbeResult{
		Probe:       probe,
		OK:          false,
		Raw:         snippet,
		Failure:     kind,
		Message:     message,
		Duration:    elapsed,
		CollectedAt: time.Now(),
	}
}
