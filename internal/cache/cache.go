package cache

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"entity-manager/internal/common"
)

// TagCache stores values by tag and key. The zero value is not usable; use
// New.
type TagCache struct {
	mu     sync.Mutex
	ttl    time.Duration
	tags   map[string]*ttlcache.Cache[string, any]
	closed bool
}

// Option configures a TagCache.
type Option func(*TagCache)

// WithTTL expires entries ttl after they are set. Zero keeps them until
// invalidated.
func WithTTL(ttl time.Duration) Option {
	return func(c *TagCache) {
		c.ttl = ttl
	}
}

// New creates an empty cache.
func New(opts ...Option) *TagCache {
	c := &TagCache{tags: make(map[string]*ttlcache.Cache[string, any])}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// storage returns the cache of tag, creating it when create is set.
func (c *TagCache) storage(tag string, create bool) *ttlcache.Cache[string, any] {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.tags[tag]
	if ok || !create || c.closed {
		return s
	}

	s = ttlcache.New[string, any](
		ttlcache.WithTTL[string, any](c.ttl),
		ttlcache.WithDisableTouchOnHit[string, any](),
	)

	if c.ttl > 0 {
		go s.Start()
	}

	c.tags[tag] = s

	return s
}

// Get returns the value stored under tag and key.
func (c *TagCache) Get(tag, key string) (any, bool) {
	s := c.storage(tag, false)
	if s == nil {
		return nil, false
	}

	item := s.Get(key)
	if item == nil {
		return nil, false
	}

	return item.Value(), true
}

// Set stores v under tag and key. Setting on a closed cache is a no-op.
func (c *TagCache) Set(tag, key string, v any) {
	s := c.storage(tag, true)
	if s == nil {
		return
	}

	s.Set(key, v, ttlcache.DefaultTTL)
}

// Has returns true if a live value is stored under tag and key.
func (c *TagCache) Has(tag, key string) bool {
	s := c.storage(tag, false)

	return s != nil && s.Has(key)
}

// Invalidate removes key from tag. An empty key clears the whole tag.
func (c *TagCache) Invalidate(tag, key string) {
	if key != "" {
		if s := c.storage(tag, false); s != nil {
			s.Delete(key)
		}

		return
	}

	c.mu.Lock()
	s, ok := c.tags[tag]
	delete(c.tags, tag)
	c.mu.Unlock()

	if ok {
		s.DeleteAll()
		c.stop(s)
	}
}

// InvalidateMatching removes every key of tag that match accepts.
func (c *TagCache) InvalidateMatching(tag string, match func(key string) bool) {
	s := c.storage(tag, false)
	if s == nil {
		return
	}

	for _, key := range s.Keys() {
		if match(key) {
			s.Delete(key)
		}
	}
}

// Tags returns the tags currently holding storage, sorted.
func (c *TagCache) Tags() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return common.SortedKeys(c.tags)
}

// Close drops every tag and stops expiry goroutines.
func (c *TagCache) Close() {
	c.mu.Lock()
	tags := c.tags
	c.tags = make(map[string]*ttlcache.Cache[string, any])
	c.closed = true
	c.mu.Unlock()

	for _, s := range tags {
		s.DeleteAll()
		c.stop(s)
	}
}

func (c *TagCache) stop(s *ttlcache.Cache[string, any]) {
	if c.ttl > 0 {
		s.Stop()
	}
}
