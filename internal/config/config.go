package config

import (
	"time"

	"entity-manager/internal/schema"
)

// DefaultTimeout is used when the file sets no timeout.
const DefaultTimeout = 30 * time.Second

// Config is the root of a configuration file.
type Config struct {
	Endpoint  string            `yaml:"endpoint"`
	Headers   map[string]string `yaml:"headers,omitempty"`
	Timeout   time.Duration     `yaml:"timeout,omitempty"`
	RateLimit RateLimit         `yaml:"rate_limit,omitempty"`
	Cache     Cache             `yaml:"cache,omitempty"`
	// Schemas are registered as transformers under their names.
	Schemas map[string]*schema.Schema `yaml:"schemas,omitempty"`
	// Entities are keyed by the entity name used in URLs.
	Entities map[string]Entity `yaml:"entities,omitempty"`
}

// RateLimit throttles outgoing requests. RPS 0 disables it.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Cache configures the Find cache.
type Cache struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl,omitempty"`
}

// Entity describes how one entity is served.
type Entity struct {
	// Kind names an entity kind; empty uses the default kind.
	Kind string `yaml:"kind,omitempty"`
	// Repository names the repository factory; empty uses the kind's.
	Repository string `yaml:"repository,omitempty"`
	// Transformer is the chain applied to requests and responses.
	Transformer string `yaml:"transformer,omitempty"`
}
