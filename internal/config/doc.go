// Package config loads the YAML file that wires a manager: connection
// settings, transport limits, cache, named schemas and entities.
//
//	endpoint: https://api.example.com
//	headers:
//	  Authorization: Bearer xyz
//	timeout: 10s
//	rate_limit: {rps: 5, burst: 10}
//	cache: {enabled: true, ttl: 1m}
//	schemas:
//	  user:
//	    request:  {full_name: name}
//	    response: {name: full_name, __copy: [id]}
//	entities:
//	  users:
//	    repository: default
//	    transformer: user
package config
