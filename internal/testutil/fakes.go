package testutil

import (
	"context"
	"sync"

	"github.com/reglet-dev/permprobe/domain/ports"
)

// CountingRegistry wraps a ServiceRegistry and counts lookups and
// transactions per service.
type CountingRegistry struct {
	next ports.ServiceRegistry

	mu        sync.Mutex
	lookups   map[string]int
	transacts map[string]int
}

var _ ports.ServiceRegistry = (*CountingRegistry)(nil)

// NewCountingRegistry wraps next.
func NewCountingRegistry(next ports.ServiceRegistry) *CountingRegistry {
	return &CountingRegistry{
		next:      next,
		lookups:   make(map[string]int),
		transacts: make(map[string]int),
	}
}

// GetService implements ports.ServiceRegistry.
func (r *CountingRegistry) GetService(ctx context.Context, name string) (ports.Binder, error) {
	r.mu.Lock()
	r.lookups[name]++
	r.mu.Unlock()

	b, err := r.next.GetService(ctx, name)
	if err != nil || b == nil {
		return b, err
	}
	return &countingBinder{next: b, name: name, registry: r}, nil
}

// Lookups returns the number of GetService calls for name.
func (r *CountingRegistry) Lookups(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups[name]
}

// Transacts returns the number of Transact calls sent to name.
func (r *CountingRegistry) Transacts(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transacts[name]
}

// TotalTransacts returns the number of Transact calls across services.
func (r *CountingRegistry) TotalTransacts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.transacts {
		n += c
	}
	return n
}

type countingBinder struct {
	next     ports.Binder
	registry *CountingRegistry
	name     string
}

func (b *countingBinder) InterfaceDescriptor(ctx context.Context) (string, error) {
	return b.next.InterfaceDescriptor(ctx)
}

func (b *countingBinder) Transact(ctx context.Context, code uint32, data []byte, flags uint32) ([]byte, error) {
	b.registry.mu.Lock()
	b.registry.transacts[b.name]++
	b.registry.mu.Unlock()
	return b.next.Transact(ctx, code, data, flags)
}

// StaticPlatform is a fixed ports.Platform.
type StaticPlatform struct {
	SDK int
	UID int
}

// SDKVersion implements ports.Platform.
func (p StaticPlatform) SDKVersion() int { return p.SDK }

// CallerUID implements ports.Platform.
func (p StaticPlatform) CallerUID() int { return p.UID }

// GrantFunc adapts a function to ports.GrantChecker.
type GrantFunc func(ctx context.Context, capability string) (bool, error)

// IsGranted implements ports.GrantChecker.
func (f GrantFunc) IsGranted(ctx context.Context, capability string) (bool, error) {
	return f(ctx, capability)
}
