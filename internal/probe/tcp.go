package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/statushub/statushub/internal/status"
)

// TCPRunner verifies a target is reachable with a TCP dial. The payload
// reports the target and observed connect latency.
type TCPRunner struct {
	logger *slog.Logger
}

// NewTCPRunner creates a tcp runner
func NewTCPRunner(logger *slog.Logger) *TCPRunner {
	return &TCPRunner{logger: logger.With("component", "tcp_runner")}
}

func (r *TCPRunner) Run(ctx context.Context, spec Spec) status.ProbeResult {
	dialCtx, cancel := context.WithTimeout(ctx, spec.Timeout())
	defer cancel()

	dialer := &net.Dialer{}
	start := time.Now()

	conn, err := dialer.DialContext(dialCtx, "tcp", spec.Target)
	elapsed := time.Since(start)

	if err != nil {
		if dialCtx.Err() == context.DeadlineExceeded {
			return status.Failed(spec.Name, status.FailureTimeout,
				fmt.Sprintf("dial %s exceeded %v deadline", spec.Target, spec.Timeout()),
				"", elapsed)
		}
		return status.Failed(spec.Name, status.FailureDecode,
			fmt.Sprintf("dial %s failed: %v", spec.Target, err), "", elapsed)
	}
	conn.Close()

	value := map[string]interface{}{
		"target":     spec.Target,
		"connected":  true,
		"latency_ms": float64(elapsed.Microseconds()) / 1000.0,
	}
	raw, _ := json.Marshal(value)

	return status.Success(spec.Name, string(raw), value, elapsed)
}
