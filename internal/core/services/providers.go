package services

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure ProviderRegistry implements the interface.
var _ driven.ProviderSet = (*ProviderRegistry)(nil)

// ProviderRegistry holds the configured content provider for each kind.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[domain.ProviderKind]driven.ContentProvider
}

// NewProviderRegistry creates a registry with the given providers.
func NewProviderRegistry(providers ...driven.ContentProvider) *ProviderRegistry {
	r := &ProviderRegistry{providers: make(map[domain.ProviderKind]driven.ContentProvider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the provider for its kind.
func (r *ProviderRegistry) Register(p driven.ContentProvider) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Kind()] = p
}

// Get returns the provider for kind.
func (r *ProviderRegistry) Get(kind domain.ProviderKind) (driven.ContentProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: provider %q not configured", domain.ErrUnsupportedType, kind)
	}
	return p, nil
}

// Kinds returns the configured provider kinds in sorted order.
func (r *ProviderRegistry) Kinds() []domain.ProviderKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.ProviderKind, 0, len(r.providers))
	for k := range r.providers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Close closes every provider.
func (r *ProviderRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for kind, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}
