package repository

import (
	"context"
	"errors"
	"log/slog"

	"entity-manager/internal/cache"
	"entity-manager/internal/entity"
	"entity-manager/internal/request"
)

const (
	// NewID is the identifier FindOrCreate answers without a network call.
	NewID = "new"
	// LimitCriterion is the criterion FindOneBy uses to ask for one result.
	LimitCriterion = "l"
)

var (
	// ErrInvalidResponseType is returned when a response cannot become an entity.
	ErrInvalidResponseType = errors.New("not valid response type")
	// ErrExpectedArray is returned by FindBy when the response is not a list.
	ErrExpectedArray = errors.New("not a valid response, expecting an array")
)

// Repository manages the entities of one kind.
type Repository interface {
	EntityName() string
	Kind() entity.Kind
	Create(data entity.Fields) entity.Entity
	BuildURL(id string) string
	Find(ctx context.Context, id string, opts ...request.Options) (entity.Entity, error)
	FindOrCreate(ctx context.Context, id string, opts ...request.Options) entity.Entity
	FindBy(ctx context.Context, criteria map[string]any, opts ...request.Options) ([]entity.Entity, error)
	FindOneBy(ctx context.Context, criteria map[string]any, opts ...request.Options) (entity.Entity, error)
	Save(ctx context.Context, e entity.Entity, opts ...request.Options) (any, error)
	SaveAll(ctx context.Context, entities []entity.Entity, opts ...request.Options) BulkResult
	Remove(ctx context.Context, entities []entity.Entity, opts ...request.Options) BulkResult
}

// Config wires a repository.
type Config struct {
	// Kind is the managed entity kind. Zero means entity.DefaultKind.
	Kind entity.Kind
	// EntityName is used to build URLs. Empty means the kind name.
	EntityName string
	Requester  request.Requester
	// Cache is optional; Find results are cached under the entity name.
	Cache  *cache.TagCache
	Logger *slog.Logger
}

// Factory builds a repository from a Config.
type Factory func(cfg Config) Repository

// BulkResult splits a batch by outcome, in completion order.
type BulkResult struct {
	Succeeded []entity.Entity
	Failed    []entity.Entity
}

// Len returns the number of entities that were attempted.
func (r BulkResult) Len() int {
	return len(r.Succeeded) + len(r.Failed)
}

// New is the default Factory.
func New(cfg Config) Repository {
	return NewBase(cfg)
}
