package schema

import (
	"entity-manager/internal/common"
	"entity-manager/internal/expr"
	"entity-manager/internal/path"
)

// Mapper applies a schema to payloads. It implements transform.Transformer
// and transform.Reverser and is safe for concurrent use.
type Mapper struct {
	schema  *Schema
	forward *compiledNode
	reverse *compiledNode
}

type compiledNode struct {
	copy   []string
	prefix *path.Path
	fields []compiledField
}

type compiledField struct {
	key     string
	keyPath *path.Path
	source  *path.Path
	program *expr.Program
	nested  *compiledNode
}

// NewMapper compiles s. Keys and leaves that do not parse are kept and
// handled per field at mapping time.
func NewMapper(s *Schema) *Mapper {
	if s == nil {
		s = &Schema{Shared: &Node{}}
	}

	return &Mapper{
		schema:  s,
		forward: compile(s.Select(Forward)),
		reverse: compile(s.Select(Reverse)),
	}
}

// Schema returns the schema the mapper was built from.
func (m *Mapper) Schema() *Schema {
	return m.schema
}

// Transform maps v with the request side of the schema. It never fails.
func (m *Mapper) Transform(v any) (any, error) {
	return m.Map(Forward, v), nil
}

// ReverseTransform maps v with the response side of the schema. It never
// fails.
func (m *Mapper) ReverseTransform(v any) (any, error) {
	return m.Map(Reverse, v), nil
}

// Map maps v in direction d. Sequences map element-wise; any other value maps
// to one object. A directional schema without the requested side returns a
// copy of v.
func (m *Mapper) Map(d Direction, v any) any {
	node := m.forward
	if d == Reverse {
		node = m.reverse
	}

	if node == nil {
		return common.DeepCopy(v)
	}

	src := node.reroot(v)

	if list, ok := src.([]any); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = node.apply(item)
		}

		return out
	}

	return node.apply(src)
}

func compile(n *Node) *compiledNode {
	if n == nil {
		return nil
	}

	c := &compiledNode{copy: n.Copy}

	if n.Prefix != "" {
		if p, err := path.Parse(n.Prefix); err == nil {
			c.prefix = &p
		}
	}

	c.fields = make([]compiledField, 0, len(n.Fields))

	for _, f := range n.Fields {
		cf := compiledField{key: f.Key}

		if p, err := path.Parse(f.Key); err == nil {
			cf.keyPath = &p
		}

		if f.IsNested() {
			cf.nested = compile(f.Nested)
		} else {
			if p, err := path.Parse(f.Source); err == nil {
				cf.source = &p
			}

			if prog, err := expr.Compile(f.Source); err == nil {
				cf.program = prog
			}
		}

		c.fields = append(c.fields, cf)
	}

	return c
}

// reroot moves src to the prefix target, keeping src when the prefix
// resolves to nothing.
func (c *compiledNode) reroot(src any) any {
	if c.prefix == nil {
		return src
	}

	v, ok := path.Get(src, *c.prefix)
	if !ok || v == nil {
		return src
	}

	return v
}

// apply maps one source value. The prefix is already applied.
func (c *compiledNode) apply(src any) map[string]any {
	out := make(map[string]any, len(c.copy)+len(c.fields))

	for _, name := range c.copy {
		if v, ok := path.Get(src, path.Path{Segments: []path.Segment{{Key: name}}}); ok {
			out[name] = common.DeepCopy(v)
		}
	}

	var scope *expr.Scope

	for _, f := range c.fields {
		var (
			v  any
			ok bool
		)

		if f.nested != nil {
			v, ok = f.nested.apply(f.nested.reroot(src)), true
		} else {
			if scope == nil {
				scope = &expr.Scope{
					Vars:     map[string]any{"object": src},
					Fallback: src,
				}
			}

			v, ok = f.evaluate(src, scope)
		}

		if !ok {
			continue
		}

		f.assign(out, v)
	}

	return out
}

// evaluate reads the leaf as a path, then as an expression.
func (f compiledField) evaluate(src any, scope *expr.Scope) (any, bool) {
	if f.source != nil {
		if v, ok := path.Get(src, *f.source); ok {
			return common.DeepCopy(v), true
		}
	}

	if f.program == nil {
		return nil, false
	}

	v, err := f.program.Eval(scope)
	if err != nil {
		return nil, false
	}

	return common.DeepCopy(v), true
}

func (f compiledField) assign(out map[string]any, v any) {
	if f.keyPath != nil && path.Set(out, *f.keyPath, v) == nil {
		return
	}

	// keys that are not paths, or collide with a scalar, are set verbatim
	out[f.key] = v
}
