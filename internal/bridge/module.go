package bridge

import (
	"sync"

	"github.com/carryapp/carry-config/internal/value"
)

// DefaultModuleName is the name under which the configuration table is exposed.
const DefaultModuleName = "CarryConfig"

// Module is a named constants table handed to the host scripting layer.
type Module interface {
	Name() string
	// Constants returns the module's table, or false when it has none.
	Constants() (map[string]any, bool)
}

// ConfigLoader is the subset of loader.Loader a ConfigModule needs.
type ConfigLoader interface {
	LoadConfig() (value.Object, bool)
}

// ConfigModule exposes the bundled configuration as a constants table. The
// table is loaded on first access and is fixed afterwards.
type ConfigModule struct {
	name   string
	loader ConfigLoader

	once      sync.Once
	config    value.Object
	available bool
}

// NewConfigModule creates a module named name backed by loader.
func NewConfigModule(name string, loader ConfigLoader) *ConfigModule {
	if name == "" {
		name = DefaultModuleName
	}
	return &ConfigModule{name: name, loader: loader}
}

// Name implements Module.
func (m *ConfigModule) Name() string {
	return m.name
}

// Constants implements Module. Each call returns a fresh copy of the table.
func (m *ConfigModule) Constants() (map[string]any, bool) {
	cfg, ok := m.Config()
	if !ok {
		return nil, false
	}
	return cfg.Interface(), true
}

// Config returns the typed configuration behind the table.
func (m *ConfigModule) Config() (value.Object, bool) {
	m.once.Do(func() {
		if m.loader == nil {
			return
		}
		m.config, m.available = m.loader.LoadConfig()
	})
	return m.config, m.available
}

// Lookup resolves a dotted path inside the configuration.
func (m *ConfigModule) Lookup(path string) (value.Value, bool, error) {
	cfg, ok := m.Config()
	if !ok {
		return value.Value{}, false, nil
	}
	v, err := cfg.Lookup(path)
	if err != nil {
		return value.Value{}, true, err
	}
	return v, true, nil
}
