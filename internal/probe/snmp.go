package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/statushub/statushub/internal/status"
)

// System MIB OIDs queried by the snmp probe kind
const (
	oidSysDescr  = "1.3.6.1.2.1.1.1.0"
	oidSysUpTime = "1.3.6.1.2.1.1.3.0"
	oidSysName   = "1.3.6.1.2.1.1.5.0"
)

// SNMPRunner performs an SNMP v2c GET against the target's system MIB
type SNMPRunner struct {
	logger *slog.Logger
}

// NewSNMPRunner creates an snmp runner
func NewSNMPRunner(logger *slog.Logger) *SNMPRunner {
	return &SNMPRunner{logger: logger.With("component", "snmp_runner")}
}

func (r *SNMPRunner) Run(ctx context.Context, spec Spec) status.ProbeResult {
	host, port, err := splitSNMPTarget(spec.Target)
	if err != nil {
		return status.Failed(spec.Name, status.FailureSpawn, err.Error(), "", 0)
	}

	community := spec.Community
	if community == "" {
		community = "public"
	}

	g := &gosnmp.GoSNMP{
		Target:    host,
		Port:      port,
		Version:   gosnmp.Version2c,
		Community: community,
		Timeout:   spec.Timeout(),
		Retries:   0,
		Context:   ctx,
	}

	start := time.Now()

	if err := g.Connect(); err != nil {
		return status.Failed(spec.Name, status.FailureSpawn,
			fmt.Sprintf("snmp connect to %s failed: %v", spec.Target, err),
			"", time.Since(start))
	}
	defer g.Conn.Close()

	result, err := g.Get([]string{oidSysDescr, oidSysUpTime, oidSysName})
	elapsed := time.Since(start)

	if err != nil {
		if strings.Contains(err.Error(), "timeout") || ctx.Err() == context.DeadlineExceeded {
			return status.Failed(spec.Name, status.FailureTimeout,
				fmt.Sprintf("snmp get from %s exceeded %v deadline", spec.Target, spec.Timeout()),
				"", elapsed)
		}
		return status.Failed(spec.Name, status.FailureDecode,
			fmt.Sprintf("snmp get from %s failed: %v", spec.Target, err), "", elapsed)
	}

	value := map[string]interface{}{"target": spec.Target}
	for _, v := range result.Variables {
		switch v.Name {
		case "." + oidSysDescr:
			value["sys_descr"] = pduString(v)
		case "." + oidSysName:
			value["sys_name"] = pduString(v)
		case "." + oidSysUpTime:
			value["sys_uptime_ticks"] = gosnmp.ToBigInt(v.Value).Int64()
		}
	}
	raw, _ := json.Marshal(value)

	return status.Success(spec.Name, string(raw), value, elapsed)
}

func pduString(v gosnmp.SnmpPDU) string {
	if b, ok := v.Value.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", v.Value)
}

// splitSNMPTarget parses host[:port], defaulting to the SNMP port
func splitSNMPTarget(target string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return target, 161, nil
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("invalid snmp port in target %q: %w", target, err)
	}
	return host, uint16(port), nil
}
