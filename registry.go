package veckey

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory builds a Client for one provider.
type Factory func(ctx context.Context, opts ...Option) (*Client, error)

// Registry maps provider names to client factories. The composition root
// owns one and registers its providers at startup; there is no package-level
// default, and duplicate registrations return errors instead of panicking.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a provider factory under the given name.
func (r *Registry) Register(provider string, f Factory) error {
	if provider == "" {
		return fmt.Errorf("register: empty provider name")
	}
	if f == nil {
		return fmt.Errorf("register %s: nil factory", provider)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[provider]; ok {
		return fmt.Errorf("register %s: already registered", provider)
	}
	r.factories[provider] = f
	return nil
}

// Open builds a client through the named provider's factory.
func (r *Registry) Open(ctx context.Context, provider string, opts ...Option) (*Client, error) {
	r.mu.RLock()
	f, ok := r.factories[provider]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("open %s: unknown provider (registered: %v)", provider, r.Providers())
	}
	return f(ctx, opts...)
}

// Providers lists registered provider names, sorted.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
