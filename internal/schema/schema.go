package schema

// Directive keys. They configure a node and never appear in mapped output.
const (
	DirectiveCopy   = "__copy"
	DirectivePrefix = "__prefix"
)

// Direction keys of a directional schema.
const (
	KeyRequest  = "request"
	KeyFrom     = "from"
	KeyResponse = "response"
	KeyTo       = "to"
)

// Direction selects which side of a schema applies.
type Direction int

const (
	// Forward maps outbound data with the request side.
	Forward Direction = iota
	// Reverse maps inbound data with the response side.
	Reverse
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}

	return "forward"
}

// Schema is a parsed mapping schema. Either Shared is set, or the schema is
// directional and Request and Response hold the sides that were declared.
type Schema struct {
	Shared   *Node
	Request  *Node
	Response *Node
}

// Node is one level of a schema tree.
type Node struct {
	// Copy lists source fields copied verbatim before the keyed walk.
	Copy []string
	// Prefix re-roots the source at this path when it resolves.
	Prefix string
	// Fields in declaration order.
	Fields []Field
}

// Field maps one output key.
type Field struct {
	// Key is the output path.
	Key string
	// Source is a source path or an expression. Empty when Nested is set.
	Source string
	// Nested is a sub-schema evaluated against the same source.
	Nested *Node
}

// IsNested returns true if the field holds a sub-schema.
func (f Field) IsNested() bool {
	return f.Nested != nil
}

// IsDirectional returns true if the schema declares request/response sides.
func (s *Schema) IsDirectional() bool {
	return s.Shared == nil
}

// Select returns the node used for direction d. A directional schema without
// that side returns nil.
func (s *Schema) Select(d Direction) *Node {
	if s == nil {
		return nil
	}

	if !s.IsDirectional() {
		return s.Shared
	}

	if d == Reverse {
		return s.Response
	}

	return s.Request
}

func isDirectionKey(key string) bool {
	switch key {
	case KeyRequest, KeyFrom, KeyResponse, KeyTo:
		return true
	default:
		return false
	}
}
