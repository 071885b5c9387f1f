package ai

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps provider kinds to their adapters. It is instance-based
// rather than a package-level table so tests and callers can assemble
// independent adapter sets; the orchestrator receives one at construction.
type Registry struct {
	mu       sync.RWMutex
	adapters map[Kind]StreamProvider
}

// NewRegistry returns an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[Kind]StreamProvider)}
}

// Register adds an adapter under its own Kind. Panics if the kind is already
// registered, which indicates a wiring bug at startup.
func (r *Registry) Register(provider StreamProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := provider.Kind()
	if _, exists := r.adapters[kind]; exists {
		panic(fmt.Sprintf("adapter %q already registered", kind))
	}
	r.adapters[kind] = provider
}

// Lookup returns the adapter for kind, or an error when none is registered.
func (r *Registry) Lookup(kind Kind) (StreamProvider, error) {
	r.mu.RLock()
	provider, ok := r.adapters[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, NewError(kind, "lookup", ErrNotConfigured)
	}
	return provider, nil
}

// RegisteredKinds returns the registered kinds in sorted order.
func (r *Registry) RegisteredKinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.adapters))
	for kind := range r.adapters {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
