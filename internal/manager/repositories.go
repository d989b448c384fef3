package manager

import (
	"fmt"

	"entity-manager/internal/entity"
	"entity-manager/internal/repository"
	"entity-manager/internal/transform"
)

// Repository builds the repository registered as name for entities called
// entityName. Lookup errors are returned unmodified.
func (m *Manager) Repository(name, entityName string) (repository.Repository, error) {
	return m.build(name, entity.DefaultKind, entityName)
}

// RepositoryFor builds the repository declared by the entity kind kindName.
// Unknown kinds fall back to entity.DefaultKind. An empty entityName uses
// kindName.
func (m *Manager) RepositoryFor(kindName, entityName string) (repository.Repository, error) {
	kind := m.catalog.Get(kindName)

	if entityName == "" {
		entityName = kindName
	}

	return m.build(kind.RepositoryName(), kind, entityName)
}

func (m *Manager) build(name string, kind entity.Kind, entityName string) (repository.Repository, error) {
	factory, err := m.repositories.Resolve(name)
	if err != nil {
		return nil, err
	}

	if factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRepository, name)
	}

	repo := factory(repository.Config{
		Kind:       kind,
		EntityName: entityName,
		Requester:  m,
		Cache:      m.cache,
		Logger:     m.logger,
	})
	if repo == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRepository, name)
	}

	return repo, nil
}

// Convert builds an entity of kind kindName from data. Unknown kinds and
// values that are not objects are returned untouched.
func (m *Manager) Convert(data any, kindName string) any {
	kind, ok := m.catalog.Lookup(kindName)
	if !ok {
		return data
	}

	switch v := data.(type) {
	case map[string]any:
		return kind.Create(v)
	case entity.Fields:
		return kind.Create(v)
	default:
		return data
	}
}

// Transform applies a transformer chain forward to v.
func (m *Manager) Transform(chain string, v any) (any, error) {
	return m.transformers.ApplyForwardChain(transform.ParseChain(chain), v)
}

// ReverseTransform applies a transformer chain in reverse to v.
func (m *Manager) ReverseTransform(chain string, v any) (any, error) {
	return m.transformers.ApplyReverseChain(transform.ParseChain(chain), v)
}
