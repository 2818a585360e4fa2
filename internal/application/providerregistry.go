package application

import (
	"slices"
	"sync"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

// ProviderRegistry holds the OAuth providers that have client credentials
// configured. Providers can be registered or replaced at runtime, so a
// credential change takes effect without restarting the application.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[model.Provider]driven.OAuthProvider
}

// NewProviderRegistry creates a registry holding the given providers.
func NewProviderRegistry(providers ...driven.OAuthProvider) *ProviderRegistry {
	r := &ProviderRegistry{providers: make(map[model.Provider]driven.OAuthProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Provider()] = p
	}
	return r
}

// Get returns the provider registered for name, or nil.
func (r *ProviderRegistry) Get(name model.Provider) driven.OAuthProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// Replace registers p, swapping out any provider previously held for the
// same name.
func (r *ProviderRegistry) Replace(p driven.OAuthProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Provider()] = p
}

// Has returns true if a provider is registered for name.
func (r *ProviderRegistry) Has(name model.Provider) bool {
	return r.Get(name) != nil
}

// Names returns the registered provider names in sorted order.
func (r *ProviderRegistry) Names() []model.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]model.Provider, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
