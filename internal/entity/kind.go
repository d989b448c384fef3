package entity

import (
	"sync"

	"entity-manager/internal/common"
)

// DefaultRepository names the repository kind used when none is declared.
const DefaultRepository = "default"

// Constructor builds an entity of a kind from initial fields.
type Constructor func(init Fields) Entity

// Kind declares a concrete entity type and the repository that manages it.
type Kind struct {
	Name string
	// Repository is the repository factory name.
	Repository string
	// New constructs instances. Nil means entity.New.
	New Constructor
}

// DefaultKind is the base entity kind.
var DefaultKind = Kind{Name: "entity", Repository: DefaultRepository}

// Create constructs an entity of the kind.
func (k Kind) Create(init Fields) Entity {
	if k.New == nil {
		return New(init)
	}

	return k.New(init)
}

// RepositoryName returns the declared repository, or the default one.
func (k Kind) RepositoryName() string {
	if k.Repository == "" {
		return DefaultRepository
	}

	return k.Repository
}

// Catalog maps kind names to kinds. It always knows DefaultKind.
type Catalog struct {
	mu    sync.RWMutex
	kinds map[string]Kind
}

// NewCatalog creates a catalog holding DefaultKind and kinds.
func NewCatalog(kinds ...Kind) *Catalog {
	c := &Catalog{kinds: map[string]Kind{DefaultKind.Name: DefaultKind}}
	for _, k := range kinds {
		c.Register(k)
	}

	return c
}

// Register adds or replaces a kind.
func (c *Catalog) Register(k Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.kinds[k.Name] = k
}

// Lookup returns the kind registered under name.
func (c *Catalog) Lookup(name string) (Kind, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	k, ok := c.kinds[name]

	return k, ok
}

// Get returns the kind registered under name, or DefaultKind.
func (c *Catalog) Get(name string) Kind {
	if k, ok := c.Lookup(name); ok {
		return k
	}

	return DefaultKind
}

// Names returns the registered kind names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return common.SortedKeys(c.kinds)
}
