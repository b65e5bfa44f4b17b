package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
	"unicode/utf8"

	"github.com/statushub/statushub/internal/status"
)

// maxSnippetLen caps how much raw output is retained for diagnostics
const maxSnippetLen = 256

// defaultGracePeriod is how long a probe process gets between context
// cancellation and a forceful kill
const defaultGracePeriod = 2 * time.Second

// Runner executes one spec and always returns a result. All failure is
// returned as a Failure variant, never as an error or panic.
type Runner interface {
	Run(ctx context.Context, spec Spec) status.ProbeResult
}

// ExecRunner spawns external commands and decodes their stdout
type ExecRunner struct {
	decoder Decoder
	grace   time.Duration
	logger  *slog.Logger
}

// NewExecRunner creates an exec runner with the given decode strategy
func NewExecRunner(decoder Decoder, logger *slog.Logger) *ExecRunner {
	return &ExecRunner{
		decoder: decoder,
		grace:   defaultGracePeriod,
		logger:  logger.With("component", "exec_runner"),
	}
}

// Run invokes the spec's command with its arguments and enforces the spec
// timeout. The contract with the probe is: emit one JSON object on stdout
// and exit 0. Anything else is a Failure entry.
func (r *ExecRunner) Run(ctx context.Context, spec Spec) status.ProbeResult {
	runCtx, cancel := context.WithTimeout(ctx, spec.Timeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.Command, spec.Args...)
	if len(spec.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range spec.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// A deadline overrun is enforced immediately so a stuck probe delays
	// its cycle by the timeout only. The interrupt-then-wait window is
	// reserved for shutdown, where the parent context is cancelled.
	cmd.Cancel = func() error {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return cmd.Process.Kill()
		}
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.grace

	r.logger.Debug("executing probe",
		"probe", spec.Name,
		"command", spec.Command,
		"timeout_ms", spec.TimeoutMS,
	)

	start := time.Now()

	if err := cmd.Start(); err != nil {
		return status.Failed(spec.Name, status.FailureSpawn,
			fmt.Sprintf("failed to start %s: %v", spec.Command, err),
			"", time.Since(start))
	}

	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		r.logger.Warn("probe timed out",
			"probe", spec.Name,
			"timeout_ms", spec.TimeoutMS,
		)
		return status.Failed(spec.Name, status.FailureTimeout,
			fmt.Sprintf("probe exceeded %v deadline", spec.Timeout()),
			snippet(stdout.Bytes()), elapsed)
	}

	if waitErr != nil && errors.Is(runCtx.Err(), context.Canceled) {
		return status.Failed(spec.Name, status.FailureTimeout,
			"probe interrupted before completion",
			snippet(stdout.Bytes()), elapsed)
	}

	if waitErr != nil {
		return status.Failed(spec.Name, status.FailureDecode,
			fmt.Sprintf("probe exited abnormally: %v", waitErr),
			snippet(stderr.Bytes()), elapsed)
	}

	decoded, err := r.decoder.Decode(stdout.Bytes())
	if err != nil {
		return status.Failed(spec.Name, status.FailureDecode,
			fmt.Sprintf("failed to decode probe output: %v", err),
			snippet(stdout.Bytes()), elapsed)
	}

	return status.Success(spec.Name, snippet(stdout.Bytes()), decoded, elapsed)
}

// snippet truncates raw output for diagnostics, never splitting a rune
func snippet(raw []byte) string {
	s := string(bytes.TrimSpace(raw))
	if len(s) <= maxSnippetLen {
		return s
	}

	cut := maxSnippetLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// MultiRunner dispatches to a kind-specific runner
type MultiRunner struct {
	runners map[Kind]Runner
}

// NewMultiRunner wires the default runner set: exec plus the built-in
// tcp, snmp and system kinds.
func NewMultiRunner(decoder Decoder, logger *slog.Logger) *MultiRunner {
	return &MultiRunner{
		runners: map[Kind]Runner{
			KindExec:   NewExecRunner(decoder, logger),
			KindTCP:    NewTCPRunner(logger),
			KindSNMP:   NewSNMPRunner(logger),
			KindSystem: NewSystemRunner(logger),
		},
	}
}

func (m *MultiRunner) Run(ctx context.Context, spec Spec) status.ProbeResult {
	runner, ok := m.runners[spec.Kind]
	if !ok {
		return status.Failed(spec.Name, status.FailureSpawn,
			fmt.Sprintf("no runner for probe kind: %s", spec.Kind), "", 0)
	}
	return runner.Run(ctx, spec)
}
