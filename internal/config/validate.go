package config

import (
	"fmt"
	"net/url"

	"entity-manager/internal/common"
	"entity-manager/internal/diagnostic"
	"entity-manager/internal/match"
	"entity-manager/internal/schema"
	"entity-manager/internal/transform"
)

// Validate checks the configuration and every schema it declares.
func (c *Config) Validate() *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}

	c.validateConnection(res)

	for _, name := range common.SortedKeys(c.Schemas) {
		res.Merge(*schema.Validate(c.Schemas[name], "schemas."+name))
	}

	c.validateEntities(res)

	return res
}

func (c *Config) validateConnection(res *diagnostic.Diagnostics) {
	if c.Endpoint == "" {
		res.AddWarning("no_endpoint", "endpoint is empty; every request needs a full url", "config", "endpoint")
	} else if u, err := url.Parse(c.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		res.AddError("invalid_endpoint", fmt.Sprintf("endpoint %q is not an absolute url", c.Endpoint),
			"config", "endpoint")
	}

	if c.Timeout < 0 {
		res.AddError("invalid_timeout", "timeout must not be negative", "config", "timeout")
	}

	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		res.AddError("invalid_rate_limit", "rate_limit values must not be negative", "config", "rate_limit")
	}

	if c.Cache.TTL < 0 {
		res.AddError("invalid_cache_ttl", "cache ttl must not be negative", "config", "cache.ttl")
	}
}

func (c *Config) validateEntities(res *diagnostic.Diagnostics) {
	known := common.SortedKeys(c.Schemas)

	for _, name := range common.SortedKeys(c.Entities) {
		e := c.Entities[name]

		for _, t := range transform.ParseChain(e.Transformer) {
			if _, ok := c.Schemas[t]; ok {
				continue
			}

			res.AddWarning("unknown_transformer",
				fmt.Sprintf("transformer %q is not a configured schema", t),
				"entities."+name, "transformer",
				match.Names(match.Suggest(t, known, match.DefaultThreshold, 3))...)
		}
	}
}
