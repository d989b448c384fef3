// Package path implements the path expressions used by schemas to address
// values inside decoded JSON-like documents.
//
// # Path Syntax
//
// Paths support:
//   - Simple fields: "name"
//   - Nested fields: "address.street"
//   - Indexes: "items[0]", "items[0].sku"
//   - Quoted keys: `meta["content-type"]`, "meta['x y']"
//
// Identifiers may contain letters, digits, '_' and '$' and must not start
// with a digit, so "$oid" and "_id" are plain fields.
//
// Documents are trees of map[string]any and []any as produced by JSON
// decoders. Other map types with string keys and other slice types are read
// through reflection; writes always build map[string]any and []any.
package path
