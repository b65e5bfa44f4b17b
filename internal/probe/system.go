package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/statushub/statushub/internal/status"
)

// SystemRunner collects local host metrics in-process instead of shelling
// out, covering the common case without an external script.
type SystemRunner struct {
	logger *slog.Logger
}

// NewSystemRunner creates a system runner
func NewSystemRunner(logger *slog.Logger) *SystemRunner {
	return &SystemRunner{logger: logger.With("component", "system_runner")}
}

func (r *SystemRunner) Run(ctx context.Context, spec Spec) status.ProbeResult {
	runCtx, cancel := context.WithTimeout(ctx, spec.Timeout())
	defer cancel()

	start := time.Now()

	value := map[string]interface{}{
		"os":       runtime.GOOS,
		"cpu_arch": runtime.GOARCH,
	}

	// Interval 0 reports usage since the previous call, which matches the
	// cycle cadence without blocking the collection.
	if percents, err := cpu.PercentWithContext(runCtx, 0, false); err == nil && len(percents) > 0 {
		value["cpu_percent"] = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(runCtx)
	if err != nil {
		return status.Failed(spec.Name, status.FailureDecode,
			fmt.Sprintf("failed to read memory stats: %v", err), "", time.Since(start))
	}
	value["mem_total_bytes"] = vm.Total
	value["mem_used_bytes"] = vm.Used
	value["mem_used_percent"] = vm.UsedPercent

	if uptime, err := host.UptimeWithContext(runCtx); err == nil {
		value["uptime_seconds"] = uptime
	}
	if info, err := host.InfoWithContext(runCtx); err == nil {
		value["hostname"] = info.Hostname
		value["platform"] = info.Platform
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return status.Failed(spec.Name, status.FailureTimeout,
			fmt.Sprintf("system collection exceeded %v deadline", spec.Timeout()),
			"", time.Since(start))
	}

	elapsed := time.Since(start)
	raw, _ := json.Marshal(value)

	return status.Success(spec.Name, string(raw), value, elapsed)
}
