package bridge

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

var (
	// ErrInvalidModule indicates a module without a name, or a nil module.
	ErrInvalidModule = errors.New("module must be non-nil and named")
	// ErrDuplicateModule indicates a second registration under the same name.
	ErrDuplicateModule = errors.New("module already registered")
	// ErrUnknownModule indicates a lookup for a name that was never registered.
	ErrUnknownModule = errors.New("unknown module")
)

// Registry keeps the modules exposed to the host and guards access with a RWMutex.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds module under its name.
func (r *Registry) Register(module Module) error {
	if module == nil || module.Name() == "" {
		return ErrInvalidModule
	}
	name := module.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, name)
	}
	r.modules[name] = module
	return nil
}

// Lookup returns the module registered under name.
func (r *Registry) Lookup(name string) (Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	module, ok := r.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	return module, nil
}

// Names returns the registered module names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.modules))
}

// Constants returns a deep copy of the named module's table. The boolean is
// false when the module exists but has no table.
func (r *Registry) Constants(name string) (map[string]any, bool, error) {
	module, err := r.Lookup(name)
	if err != nil {
		return nil, false, err
	}
	table, ok := module.Constants()
	if !ok {
		return nil, false, nil
	}
	return cloneTable(table), true, nil
}

func cloneTable(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneAny(v)
	}
	return out
}

func cloneAny(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneTable(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneAny(item)
		}
		return out
	default:
		return v
	}
}
