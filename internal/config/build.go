package config

import (
	"fmt"
	"log/slog"

	"entity-manager/internal/cache"
	"entity-manager/internal/common"
	"entity-manager/internal/manager"
	"entity-manager/internal/repository"
	"entity-manager/internal/request"
	"entity-manager/internal/schema"
	"entity-manager/internal/transform"
	"entity-manager/internal/transport"
)

// Transport builds the HTTP transport described by the file.
func (c *Config) Transport() *transport.HTTP {
	return transport.NewHTTP(
		transport.WithTimeout(c.Timeout),
		transport.WithRateLimit(c.RateLimit.RPS, c.RateLimit.Burst),
	)
}

// Transformers returns a registry with one schema mapper per schema.
func (c *Config) Transformers() *transform.Registry {
	reg := transform.NewRegistry(nil)
	for _, name := range common.SortedKeys(c.Schemas) {
		reg.Register(name, schema.NewMapper(c.Schemas[name]))
	}

	return reg
}

// NewCache returns the Find cache, or nil when caching is disabled.
func (c *Config) NewCache() *cache.TagCache {
	if !c.Cache.Enabled {
		return nil
	}

	return cache.New(cache.WithTTL(c.Cache.TTL))
}

// Manager wires a manager from the file. Options are applied after the
// configured ones and may override them.
func (c *Config) Manager(logger *slog.Logger, opts ...manager.Option) *manager.Manager {
	base := []manager.Option{
		manager.WithEndpoint(c.Endpoint),
		manager.WithTransformers(c.Transformers()),
		manager.WithLogger(logger),
	}

	for _, k := range common.SortedKeys(c.Headers) {
		base = append(base, manager.WithHeader(k, c.Headers[k]))
	}

	if tc := c.NewCache(); tc != nil {
		base = append(base, manager.WithCache(tc))
	}

	return manager.New(c.Transport(), append(base, opts...)...)
}

// Repository builds the repository for the named entity. Entities missing
// from the file use the default repository with no transformer.
func (c *Config) Repository(m *manager.Manager, entityName string) (repository.Repository, error) {
	e := c.Entities[entityName]

	var (
		repo repository.Repository
		err  error
	)

	if e.Repository != "" {
		repo, err = m.Repository(e.Repository, entityName)
	} else {
		repo, err = m.RepositoryFor(e.Kind, entityName)
	}

	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", entityName, err)
	}

	return repo, nil
}

// RequestOptions returns the per-entity transformer settings for requests.
func (c *Config) RequestOptions(entityName string) request.Options {
	t := c.Entities[entityName].Transformer

	return request.Options{RequestTransformer: t, ResponseTransformer: t}
}
