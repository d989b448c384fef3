package manager

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"entity-manager/internal/cache"
	"entity-manager/internal/common"
	"entity-manager/internal/entity"
	"entity-manager/internal/repository"
	"entity-manager/internal/request"
	"entity-manager/internal/service"
	"entity-manager/internal/transform"
	"entity-manager/internal/transport"
)

var (
	// ErrMissingURL is returned before any I/O when a call has no URL.
	ErrMissingURL = errors.New("url should be defined")
	// ErrMissingData is returned before any I/O when a PUT or PATCH has no data.
	ErrMissingData = errors.New("data should be defined")
	// ErrInvalidRepository is returned when a repository factory resolves to nil.
	ErrInvalidRepository = errors.New("not a valid repository")
)

// Settings are the connection settings of a manager.
type Settings struct {
	Endpoint    string
	HTTPOptions request.Options
}

func (s Settings) clone() Settings {
	out := s
	if s.HTTPOptions.Header != nil {
		out.HTTPOptions.Header = common.CloneMap(s.HTTPOptions.Header)
	}

	if s.HTTPOptions.Criteria != nil {
		out.HTTPOptions.Criteria = common.CloneMap(s.HTTPOptions.Criteria)
	}

	return out
}

// Manager sends requests and hands out repositories.
type Manager struct {
	mu       sync.RWMutex
	settings Settings

	transport    transport.Transport
	transformers *transform.Registry
	repositories *service.Registry[repository.Factory]
	catalog      *entity.Catalog
	cache        *cache.TagCache
	logger       *slog.Logger

	registerer prometheus.Registerer
	metrics    *metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithEndpoint sets the URL prefix of every call.
func WithEndpoint(url string) Option {
	return func(m *Manager) {
		m.settings.Endpoint = url
	}
}

// WithHeader adds a baseline header.
func WithHeader(key, value string) Option {
	return func(m *Manager) {
		m.addHeader(key, value)
	}
}

// WithHTTPOptions sets the baseline request options.
func WithHTTPOptions(o request.Options) Option {
	return func(m *Manager) {
		m.settings.HTTPOptions = o
	}
}

// WithTransformers sets the transformer registry.
func WithTransformers(r *transform.Registry) Option {
	return func(m *Manager) {
		m.transformers = r
	}
}

// WithRepositories sets the repository factories. A "default" factory is
// added when missing.
func WithRepositories(r *service.Registry[repository.Factory]) Option {
	return func(m *Manager) {
		m.repositories = r
	}
}

// WithCatalog sets the entity kinds.
func WithCatalog(c *entity.Catalog) Option {
	return func(m *Manager) {
		m.catalog = c
	}
}

// WithCache enables the tag cache for repositories.
func WithCache(c *cache.TagCache) Option {
	return func(m *Manager) {
		m.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithMetrics registers request metrics with r.
func WithMetrics(r prometheus.Registerer) Option {
	return func(m *Manager) {
		m.registerer = r
	}
}

// New creates a manager sending through tr.
func New(tr transport.Transport, opts ...Option) *Manager {
	m := &Manager{transport: tr}
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}

	if m.transformers == nil {
		m.transformers = transform.NewRegistry(nil)
	}

	if m.repositories == nil {
		m.repositories = service.NewRegistry[repository.Factory]()
	}

	if !m.repositories.Has(entity.DefaultRepository) {
		m.repositories.RegisterInstance(entity.DefaultRepository, repository.New)
	}

	if m.catalog == nil {
		m.catalog = entity.NewCatalog()
	}

	if m.registerer != nil {
		met, err := newMetrics(m.registerer)
		if err != nil {
			m.logger.Warn("Failed to register metrics, continuing without", "error", err)
		}

		m.metrics = met
	}

	return m
}

// Endpoint returns the URL prefix.
func (m *Manager) Endpoint() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.settings.Endpoint
}

// SetEndpoint replaces the URL prefix.
func (m *Manager) SetEndpoint(url string) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings.Endpoint = url

	return m
}

// HTTPOptions returns a copy of the baseline request options.
func (m *Manager) HTTPOptions() request.Options {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.settings.clone().HTTPOptions
}

// SetHTTPOptions replaces the baseline request options.
func (m *Manager) SetHTTPOptions(o request.Options) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings.HTTPOptions = o

	return m
}

// AddHeader sets one baseline header.
func (m *Manager) AddHeader(key, value string) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addHeader(key, value)

	return m
}

func (m *Manager) addHeader(key, value string) {
	if m.settings.HTTPOptions.Header == nil {
		m.settings.HTTPOptions.Header = make(map[string]string)
	}

	m.settings.HTTPOptions.Header[key] = value
}

// Settings returns a copy of the connection settings.
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.settings.clone()
}

// Transformers returns the transformer registry.
func (m *Manager) Transformers() *transform.Registry {
	return m.transformers
}

// Repositories returns the repository factories.
func (m *Manager) Repositories() *service.Registry[repository.Factory] {
	return m.repositories
}

// Catalog returns the entity kinds.
func (m *Manager) Catalog() *entity.Catalog {
	return m.catalog
}
