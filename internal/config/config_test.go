package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
server:
  host: 0.0.0.0
  port: 9090
auth:
  admin_username: admin
  admin_password: test-password-1
  jwt_secret: 0123456789abcdef0123456789abcdef
scheduler:
  interval_ms: 30000
probes:
  - name: cpu
    kind: exec
    command: /usr/local/bin/cpu-status
  - name: gpu
    kind: exec
    command: /usr/local/bin/gpu-status
    timeout_ms: 12000
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Scheduler.GetInterval() != 30*time.Second {
		t.Errorf("unexpected interval %v", cfg.Scheduler.GetInterval())
	}
	if len(cfg.Probes) != 2 {
		t.Fatalf("expected 2 probes, got %d", len(cfg.Probes))
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Scheduler.Parallelism != 4 {
		t.Errorf("expected default parallelism 4, got %d", cfg.Scheduler.Parallelism)
	}
	if cfg.Scheduler.DefaultTimeoutMS != 5000 {
		t.Errorf("expected default timeout 5000ms, got %d", cfg.Scheduler.DefaultTimeoutMS)
	}
	if cfg.Auth.GetJWTExpiry() != 24*time.Hour {
		t.Errorf("expected default expiry 24h, got %v", cfg.Auth.GetJWTExpiry())
	}
	if cfg.History.BufferSize != 64 || cfg.History.DefaultLimit != 50 {
		t.Errorf("unexpected history defaults: %+v", cfg.History)
	}
}

func TestLoad_ProbeTimeoutInheritance(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	// cpu has no explicit timeout, gpu does
	if cfg.Probes[0].TimeoutMS != 5000 {
		t.Errorf("expected inherited timeout 5000ms, got %d", cfg.Probes[0].TimeoutMS)
	}
	if cfg.Probes[1].TimeoutMS != 12000 {
		t.Errorf("expected explicit timeout 12000ms, got %d", cfg.Probes[1].TimeoutMS)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "ShortJWTSecret",
			mutate:  func(s string) string { return strings.Replace(s, "0123456789abcdef0123456789abcdef", "short", 1) },
			wantErr: "jwt_secret",
		},
		{
			name:    "DefaultAdminPassword",
			mutate:  func(s string) string { return strings.Replace(s, "test-password-1", "changeme", 1) },
			wantErr: "ADMIN_PASSWORD",
		},
		{
			name:    "DuplicateProbeName",
			mutate:  func(s string) string { return strings.Replace(s, "name: gpu", "name: cpu", 1) },
			wantErr: "duplicate probe name",
		},
		{
			name:    "ZeroInterval",
			mutate:  func(s string) string { return strings.Replace(s, "interval_ms: 30000", "interval_ms: 0", 1) },
			wantErr: "interval_ms",
		},
		{
			name: "NoProbes",
			mutate: func(s string) string {
				idx := strings.Index(s, "probes:")
				return s[:idx] + "probes: []\n"
			},
			wantErr: "at least one probe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.mutate(validYAML)))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STATUSHUB_AUTH_JWT_SECRET", "fedcba9876543210fedcba9876543210")
	t.Setenv("STATUSHUB_DATABASE_HOST", "db.internal")
	t.Setenv("STATUSHUB_DATABASE_PORT", "5433")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Auth.JWTSecret != "fedcba9876543210fedcba9876543210" {
		t.Error("expected env var to override jwt secret")
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 5433 {
		t.Errorf("expected env overrides on database config, got %+v", cfg.Database)
	}
}

func TestGetDSN(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", Port: 5432, User: "hub", Password: "pw", DBName: "statushub"}
	dsn := d.GetDSN()
	if !strings.Contains(dsn, "host=localhost") || !strings.Contains(dsn, "sslmode=disable") {
		t.Errorf("unexpected dsn: %s", dsn)
	}
}

func TestIsLogLevelValid(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "WARN", "Error"} {
		l := LoggingConfig{Level: lvl}
		if !l.IsLogLevelValid() {
			t.Errorf("expected %q to be valid", lvl)
		}
	}
	l := LoggingConfig{Level: "verbose"}
	if l.IsLogLevelValid() {
		t.Error("expected verbose to be invalid")
	}
}
