package probe

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds the set of registered probe specs. Names are unique within
// a registry instance; registration order is preserved so listings and
// cycles are stable.
type Registry struct {
	mu     sync.RWMutex
	specs  map[string]Spec
	order  []string
	logger *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		specs:  make(map[string]Spec),
		logger: logger.With("component", "probe_registry"),
	}
}

// Register validates and adds a spec. Duplicate names are rejected rather
// than overwritten.
func (r *Registry) Register(spec Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[spec.Name]; exists {
		return fmt.Errorf("probe already registered: %s", spec.Name)
	}

	r.specs[spec.Name] = spec
	r.order = append(r.order, spec.Name)

	r.logger.Info("probe registered",
		"probe", spec.Name,
		"kind", spec.Kind,
		"timeout_ms", spec.TimeoutMS,
	)

	return nil
}

// Get retrieves a spec by name
func (r *Registry) Get(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[name]
	return spec, ok
}

// List returns all specs in registration order
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.specs[name])
	}
	return result
}

// Len returns the number of registered specs
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.specs)
}
