package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"entity-manager/internal/common"
	"entity-manager/internal/entity"
	"entity-manager/internal/request"
)

// Base implements Repository. Concrete repositories embed it and override
// single operations.
type Base struct {
	kind       entity.Kind
	entityName string
	requester  request.Requester
	cfg        Config
	logger     *slog.Logger
}

// NewBase creates a Base from cfg.
func NewBase(cfg Config) *Base {
	kind := cfg.Kind
	if kind.Name == "" {
		kind = entity.DefaultKind
	}

	name := cfg.EntityName
	if name == "" {
		name = kind.Name
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Base{
		kind:       kind,
		entityName: name,
		requester:  cfg.Requester,
		cfg:        cfg,
		logger:     logger.With("entity", name),
	}
}

// EntityName returns the name used in URLs.
func (b *Base) EntityName() string {
	return b.entityName
}

// Kind returns the managed entity kind.
func (b *Base) Kind() entity.Kind {
	return b.kind
}

// Create constructs an entity of the managed kind.
func (b *Base) Create(data entity.Fields) entity.Entity {
	return b.kind.Create(data)
}

// BuildURL returns "/<entityName>" or "/<entityName>/<id>".
func (b *Base) BuildURL(id string) string {
	if id == "" {
		return "/" + b.entityName
	}

	return "/" + b.entityName + "/" + id
}

// Find fetches one entity. A one-element list response is unwrapped.
func (b *Base) Find(ctx context.Context, id string, opts ...request.Options) (entity.Entity, error) {
	o := request.MergeAll(request.Options{}, opts...)
	key, cacheable := cacheKey(id, o)

	if cacheable {
		if fields, ok := b.cached(key); ok {
			return b.Create(fields), nil
		}
	}

	o.URL = b.BuildURL(id)

	data, err := b.requester.Get(ctx, o)
	if err != nil {
		return nil, err
	}

	if list, ok := data.([]any); ok {
		if only, ok := common.Only(list); ok {
			data = only
		}
	}

	fields, err := toFields(data)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", b.BuildURL(id), err)
	}

	if cacheable {
		b.store(key, fields)
	}

	return b.Create(fields), nil
}

// FindOrCreate returns a fresh entity for NewID without a network call, and
// on any failure of Find.
func (b *Base) FindOrCreate(ctx context.Context, id string, opts ...request.Options) entity.Entity {
	if id == NewID {
		return b.Create(entity.Fields{})
	}

	e, err := b.Find(ctx, id, opts...)
	if err != nil {
		b.logger.Debug("Find failed, creating a new entity", "id", id, "error", err)
		return b.Create(entity.Fields{})
	}

	return e
}

// FindBy fetches the entities matching criteria. The response must be a list.
func (b *Base) FindBy(ctx context.Context, criteria map[string]any, opts ...request.Options) ([]entity.Entity, error) {
	o := request.MergeAll(request.Options{}, opts...)
	o.URL = b.BuildURL("")
	o.Criteria = common.MergeMaps(o.Criteria, criteria)

	data, err := b.requester.Get(ctx, o)
	if err != nil {
		return nil, err
	}

	list, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("find %s: %w", o.URL, ErrExpectedArray)
	}

	out := make([]entity.Entity, 0, len(list))

	for i, item := range list {
		fields, err := toFields(item)
		if err != nil {
			return nil, fmt.Errorf("find %s: element %d: %w", o.URL, i, err)
		}

		out = append(out, b.Create(fields))
	}

	return out, nil
}

// FindOneBy is FindBy limited to one result. An empty result gives an empty
// entity.
func (b *Base) FindOneBy(ctx context.Context, criteria map[string]any, opts ...request.Options) (entity.Entity, error) {
	limited := common.CloneMap(criteria)
	limited[LimitCriterion] = 1

	found, err := b.FindBy(ctx, limited, opts...)
	if err != nil {
		return nil, err
	}

	if len(found) > 1 {
		b.logger.Debug("Limit not honoured, keeping the first result", "count", len(found))
	}

	if first, ok := common.First(found); ok {
		return b.Create(first.Fields()), nil
	}

	return b.Create(nil), nil
}

// Save sends PUT /<name>/<id> for identified entities and POST /<name>
// otherwise, with the entity as body. A URL in opts takes precedence.
func (b *Base) Save(ctx context.Context, e entity.Entity, opts ...request.Options) (any, error) {
	id, hasID := entity.IDString(e)

	o := request.MergeAll(request.Options{}, opts...)
	o.Data = map[string]any(e.Fields())

	if o.URL == "" {
		o.URL = b.BuildURL(id)
	}

	var (
		resp any
		err  error
	)

	if hasID {
		resp, err = b.requester.Put(ctx, o)
	} else {
		resp, err = b.requester.Post(ctx, o)
	}

	if err != nil {
		return nil, err
	}

	if hasID {
		b.invalidate(id)
	}

	return resp, nil
}

// SaveAll saves every entity concurrently and waits for all of them.
func (b *Base) SaveAll(ctx context.Context, entities []entity.Entity, opts ...request.Options) BulkResult {
	c := newCollector(len(entities))

	var g errgroup.Group

	for _, e := range entities {
		e := e // per-iteration copy; go directive is below 1.22

		g.Go(func() error {
			_, err := b.Save(ctx, e, opts...)
			if err != nil {
				b.logger.Warn("Failed to save entity", "error", err)
			}

			c.add(e, err)

			return nil
		})
	}

	_ = g.Wait()

	return c.result()
}

// Remove deletes every identified entity concurrently and waits for all of
// them. Entities without an identifier are skipped and absent from the
// result. Remove does not fail; failures are listed in the result.
// Requests start in input order but may reach the wire in any order.
func (b *Base) Remove(ctx context.Context, entities []entity.Entity, opts ...request.Options) BulkResult {
	c := newCollector(len(entities))

	var g errgroup.Group

	for _, e := range entities {
		e := e // per-iteration copy; go directive is below 1.22

		id, ok := entity.IDString(e)
		if !ok {
			continue
		}

		o := request.MergeAll(request.Options{}, opts...)
		o.URL = b.BuildURL(id)

		g.Go(func() error {
			_, err := b.requester.Delete(ctx, o)
			if err != nil {
				b.logger.Warn("Failed to remove entity", "id", id, "error", err)
			} else {
				b.invalidate(id)
			}

			c.add(e, err)

			return nil
		})
	}

	_ = g.Wait()

	return c.result()
}

// chainSep separates the id from the response chain in cache keys.
const chainSep = "\x00"

// cacheKey returns the key Find results are cached under. Reads with extra
// headers or criteria are not cached; the response chain is part of the key.
func cacheKey(id string, o request.Options) (string, bool) {
	if id == "" || len(o.Header) > 0 || len(o.Criteria) > 0 {
		return "", false
	}

	if o.ResponseTransformer == "" {
		return id, true
	}

	return id + chainSep + o.ResponseTransformer, true
}

func (b *Base) cached(key string) (entity.Fields, bool) {
	if b.cfg.Cache == nil {
		return nil, false
	}

	v, ok := b.cfg.Cache.Get(b.entityName, key)
	if !ok {
		return nil, false
	}

	fields, ok := v.(entity.Fields)
	if !ok {
		return nil, false
	}

	return fields.Clone(), true
}

func (b *Base) store(key string, fields entity.Fields) {
	if b.cfg.Cache == nil {
		return
	}

	b.cfg.Cache.Set(b.entityName, key, fields.Clone())
}

// invalidate drops id under every response chain.
func (b *Base) invalidate(id string) {
	if b.cfg.Cache == nil || id == "" {
		return
	}

	b.cfg.Cache.InvalidateMatching(b.entityName, func(key string) bool {
		return key == id || strings.HasPrefix(key, id+chainSep)
	})
}

// toFields accepts objects and nil; anything else cannot become an entity.
func toFields(data any) (entity.Fields, error) {
	switch v := data.(type) {
	case nil:
		return entity.Fields{}, nil
	case map[string]any:
		return entity.Fields(v), nil
	case entity.Fields:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidResponseType, data)
	}
}

// collector records outcomes in completion order.
type collector struct {
	mu  sync.Mutex
	res BulkResult
}

func newCollector(n int) *collector {
	return &collector{res: BulkResult{
		Succeeded: make([]entity.Entity, 0, n),
		Failed:    make([]entity.Entity, 0),
	}}
}

func (c *collector) add(e entity.Entity, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.res.Failed = append(c.res.Failed, e)
		return
	}

	c.res.Succeeded = append(c.res.Succeeded, e)
}

func (c *collector) result() BulkResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.res
}
