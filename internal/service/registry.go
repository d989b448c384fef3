package service

import (
	"errors"
	"fmt"
	"sync"

	"entity-manager/internal/common"
)

// ErrUnknown is returned by Resolve for names that were never registered.
var ErrUnknown = errors.New("unknown service")

// Factory builds a service instance on each resolution.
type Factory[T any] func() (T, error)

// Registry maps names to factories of T. The zero value is not usable; use
// NewRegistry.
type Registry[T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		factories: make(map[string]Factory[T]),
	}
}

// Register associates name with a factory, replacing any previous entry.
func (r *Registry[T]) Register(name string, f Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = f
}

// RegisterInstance registers a factory that always returns v.
func (r *Registry[T]) RegisterInstance(name string, v T) {
	r.Register(name, func() (T, error) { return v, nil })
}

// Unregister removes name from the registry.
func (r *Registry[T]) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.factories, name)
}

// Has returns true if name is registered.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[name]

	return ok
}

// Names returns all registered names, sorted.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return common.SortedKeys(r.factories)
}

// Resolve builds the service registered under name. Unknown names fail with
// an error wrapping ErrUnknown; factory errors are returned as they are.
func (r *Registry[T]) Resolve(name string) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %q", ErrUnknown, name)
	}

	return f()
}
