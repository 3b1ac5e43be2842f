package analyzer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Constructor builds a fresh analyzer from a config.
type Constructor func(config Config) Analyzer

// Registry maps analyzer type keys to constructors and memoizes one
// singleton instance per type. New categories register here without the
// orchestrator changing.
type Registry struct {
	mu           sync.Mutex
	constructors map[string]Constructor
	instances    map[string]Analyzer
	log          hclog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log hclog.Logger) *Registry {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Registry{
		constructors: make(map[string]Constructor),
		instances:    make(map[string]Analyzer),
		log:          log,
	}
}

// Register binds a type key to a constructor. Re-registration overwrites
// the previous constructor and logs a warning.
func (r *Registry) Register(typ string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.constructors[typ]; exists {
		r.log.Warn("overwriting registered analyzer type", "type", typ)
	}
	r.constructors[typ] = ctor
}

// Create always returns a fresh instance for the type. Unknown types are
// an error naming the valid alternatives.
func (r *Registry) Create(typ string, config Config) (Analyzer, error) {
	r.mu.Lock()
	ctor, ok := r.constructors[typ]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown analyzer type %q (valid types: %v)", typ, r.Types())
	}
	return ctor(config), nil
}

// Instance returns the memoized singleton for the type, constructing it
// on first use. Distinct from Create, which never memoizes.
func (r *Registry) Instance(typ string, config Config) (Analyzer, error) {
	r.mu.Lock()
	if a, ok := r.instances[typ]; ok {
		r.mu.Unlock()
		return a, nil
	}
	ctor, ok := r.constructors[typ]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown analyzer type %q (valid types: %v)", typ, r.Types())
	}

	a := ctor(config)
	r.mu.Lock()
	r.instances[typ] = a
	r.mu.Unlock()
	return a, nil
}

// ClearInstances drops all memoized singletons; used by tests that need
// isolated analyzer state.
func (r *Registry) ClearInstances() {
	r.mu.Lock()
	r.instances = make(map[string]Analyzer)
	r.mu.Unlock()
}

// Types lists the registered type keys, sorted.
func (r *Registry) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.constructors))
	for t := range r.constructors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
