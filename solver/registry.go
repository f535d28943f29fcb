package solver

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Backend)
)

// Register makes a backend available for lookup by its name. It is intended
// to be called from the init function of a backend package. Registering two
// backends under the same name panics, as does a nil backend.
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if b == nil {
		panic("solver: Register backend is nil")
	}
	if _, dup := registry[b.Name()]; dup {
		panic("solver: Register called twice for backend " + b.Name())
	}
	registry[b.Name()] = b
}

// Get returns the backend registered under name.
func Get(name string) (Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("solver: unknown backend %q (forgotten import?)", name)
	}
	return b, nil
}

// Names returns the sorted names of all registered backends.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
