// Package probe defines probe specifications, the registry that holds them,
// and the runners that execute them.
package probe

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Kind selects the runner used for a spec
type Kind string

const (
	// KindExec spawns an external command and decodes its stdout
	KindExec Kind = "exec"

	// KindTCP dials a TCP endpoint to verify reachability
	KindTCP Kind = "tcp"

	// KindSNMP performs an SNMP v2c GET against the system MIB
	KindSNMP Kind = "snmp"

	// KindSystem collects local host CPU/memory/uptime in-process
	KindSystem Kind = "system"
)

// Spec describes what to run, not how the platform spawns it. Immutable
// once registered.
type Spec struct {
	Name      string            `yaml:"name" json:"name" validate:"required,max=64,probename"`
	Kind      Kind              `yaml:"kind" json:"kind" validate:"required,oneof=exec tcp snmp system"`
	Command   string            `yaml:"command" json:"command,omitempty" validate:"required_if=Kind exec"`
	Args      []string          `yaml:"args" json:"args,omitempty"`
	Env       map[string]string `yaml:"env" json:"env,omitempty"`
	Target    string            `yaml:"target" json:"target,omitempty" validate:"required_if=Kind tcp,required_if=Kind snmp"`
	Community string            `yaml:"community" json:"community,omitempty"`
	TimeoutMS int               `yaml:"timeout_ms" json:"timeout_ms" validate:"gt=0"`
}

// Timeout returns the per-execution deadline as a duration
func (s Spec) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Probe names end up in URLs, log fields and database rows, so only
	// allow alphanumerics, hyphens, underscores and periods.
	_ = v.RegisterValidation("probename", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		for _, c := range name {
			switch {
			case c >= 'a' && c <= 'z':
			case c >= 'A' && c <= 'Z':
			case c >= '0' && c <= '9':
			case c == '-' || c == '_' || c == '.':
			default:
				return false
			}
		}
		return name != ""
	})

	return v
}

// Validate checks the spec against the registration rules
func (s Spec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid probe spec %q: %w", s.Name, err)
	}
	return nil
}
