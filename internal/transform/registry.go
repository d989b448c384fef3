package transform

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"entity-manager/internal/common"
	"entity-manager/internal/match"
)

// ErrNotTransformer is returned when a lazy reference resolves to nothing.
var ErrNotTransformer = errors.New("reference did not resolve to a transformer")

// Transformer converts a value in the forward direction.
type Transformer interface {
	Transform(v any) (any, error)
}

// Reverser is implemented by transformers that also convert in reverse.
type Reverser interface {
	ReverseTransform(v any) (any, error)
}

// Func is a single function registered as a transformer. It is applied in
// both directions.
type Func func(v any) (any, error)

// Transform calls f.
func (f Func) Transform(v any) (any, error) { return f(v) }

// ReverseTransform calls f.
func (f Func) ReverseTransform(v any) (any, error) { return f(v) }

// Resolver turns a reference name into a transformer. *service.Registry
// [Transformer] satisfies it.
type Resolver interface {
	Resolve(name string) (Transformer, error)
}

type entry struct {
	transformer Transformer
	ref         string
}

// Registry maps names to transformers.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]entry
	services Resolver
}

// NewRegistry creates an empty registry. services resolves names registered
// with RegisterRef and may be nil when no references are used.
func NewRegistry(services Resolver) *Registry {
	return &Registry{
		entries:  make(map[string]entry),
		services: services,
	}
}

// Register adds a transformer under name, replacing any previous entry.
func (r *Registry) Register(name string, t Transformer) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = entry{transformer: t}

	return r
}

// RegisterFunc adds f under name.
func (r *Registry) RegisterFunc(name string, f func(any) (any, error)) *Registry {
	return r.Register(name, Func(f))
}

// RegisterRef adds a lazy reference: serviceName is resolved through the
// service resolver every time name is used.
func (r *Registry) RegisterRef(name, serviceName string) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = entry{ref: serviceName}

	return r
}

// Has returns true if a transformer with the given name exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[name]

	return ok
}

// Unregister removes name.
func (r *Registry) Unregister(name string) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)

	return r
}

// Names returns all transformer names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return common.SortedKeys(r.entries)
}

// Resolve returns the transformer registered under name, resolving lazy
// references. It returns nil and no error for unknown names. Lookup errors
// from the service resolver are returned unmodified.
func (r *Registry) Resolve(name string) (Transformer, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	if e.ref == "" {
		return e.transformer, nil
	}

	if r.services == nil {
		return nil, fmt.Errorf("transformer %q: no resolver for reference %q", name, e.ref)
	}

	t, err := r.services.Resolve(e.ref)
	if err != nil {
		return nil, err
	}

	if t == nil {
		return nil, fmt.Errorf("transformer %q: %w: %q", name, ErrNotTransformer, e.ref)
	}

	return t, nil
}

// ApplyForward transforms v with the named transformer. Unknown names return
// v unchanged.
func (r *Registry) ApplyForward(name string, v any) (any, error) {
	t, err := r.Resolve(name)
	if err != nil || t == nil {
		return v, err
	}

	return t.Transform(v)
}

// ApplyReverse reverse-transforms v with the named transformer. Unknown names
// and transformers without a reverse direction return v unchanged.
func (r *Registry) ApplyReverse(name string, v any) (any, error) {
	t, err := r.Resolve(name)
	if err != nil || t == nil {
		return v, err
	}

	rev, ok := t.(Reverser)
	if !ok {
		return v, nil
	}

	return rev.ReverseTransform(v)
}

// ApplyForwardChain applies each transformer of c forward, left to right.
// The first error stops the chain and is returned as it is.
func (r *Registry) ApplyForwardChain(c Chain, v any) (any, error) {
	return r.applyChain(c, v, r.ApplyForward)
}

// ApplyReverseChain applies each transformer of c in reverse, left to right.
func (r *Registry) ApplyReverseChain(c Chain, v any) (any, error) {
	return r.applyChain(c, v, r.ApplyReverse)
}

func (r *Registry) applyChain(c Chain, v any, apply func(string, any) (any, error)) (any, error) {
	out := v

	for _, name := range c {
		var err error

		out, err = apply(name, out)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Missing describes a chain element that is not registered.
type Missing struct {
	Name        string
	Suggestions []string
}

// Missing reports the names of c that are not registered, each with the
// closest registered names.
func (r *Registry) Missing(c Chain) []Missing {
	known := r.Names()

	var out []Missing

	for _, name := range c {
		if r.Has(name) {
			continue
		}

		out = append(out, Missing{
			Name:        name,
			Suggestions: match.Names(match.Suggest(name, known, match.DefaultThreshold, 3)),
		})
	}

	return out
}

// Chain is an ordered list of transformer names.
type Chain []string

var chainSeparators = regexp.MustCompile(`[\s,]+`)

// ParseChain splits a whitespace or comma separated list of names.
func ParseChain(s string) Chain {
	var c Chain

	for _, name := range chainSeparators.Split(s, -1) {
		if name != "" {
			c = append(c, name)
		}
	}

	return c
}

// String joins the chain with single spaces.
func (c Chain) String() string {
	return strings.Join(c, " ")
}

// IsEmpty returns true if the chain names no transformer.
func (c Chain) IsEmpty() bool {
	return len(c) == 0
}
