// Package schema implements declarative, path-based payload mapping.
//
// A schema is a tree whose keys are output paths and whose leaves are either
// source paths or small expressions:
//
//	__prefix: data            # re-root the source at data before mapping
//	__copy: [id, createdAt]   # copy these fields verbatim, first
//	name: profile.fullName    # path into the source
//	address:                  # nested schema, evaluated against the same source
//	  city: location.city
//	meta.kind: "'user'"       # dotted output keys build nested objects
//	total: price * quantity   # expression fallback when no path matches
//
// Leaves are first read as paths. When the path is malformed or resolves to
// nothing, the leaf is evaluated with the restricted expr language, where
// "object" names the current source and the source's top-level fields are
// visible as identifiers. A leaf that fails both ways leaves its output key
// unset; mapping never fails.
//
// A schema whose top-level keys are all direction keys splits into a request
// side ("request" or "from") used by Transform and a response side ("response"
// or "to") used by ReverseTransform:
//
//	request:
//	  full_name: name
//	response:
//	  name: full_name
//
// A Mapper is a transform.Transformer, so schemas register in the transformer
// registry like any other transformer.
package schema
