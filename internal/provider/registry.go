package provider

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrAdapterNotFound   = errors.New("adapter not found")
	ErrAdapterRegistered = errors.New("adapter already registered")
)

var (
	registryMu sync.RWMutex
	registry   = map[Provider]Adapter{}
)

// Register adds an adapter to the registry keyed by its provider.
func Register(adapter Adapter) error {
	if adapter == nil {
		return errors.New("adapter is nil")
	}

	key := adapter.Provider()
	if key == "" {
		return errors.New("adapter provider is required")
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[key]; exists {
		return ErrAdapterRegistered
	}

	registry[key] = adapter
	return nil
}

// Get returns the adapter registered for a provider.
func Get(p Provider) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	adapter, ok := registry[p]
	return adapter, ok
}

// Registered returns all providers with a registered adapter, sorted by
// identifier.
func Registered() []Provider {
	registryMu.RLock()
	defer registryMu.RUnlock()

	providers := make([]Provider, 0, len(registry))
	for p := range registry {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}
