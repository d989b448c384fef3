package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"entity-manager/internal/common"
)

// LoadFile loads and parses a YAML (or JSON) schema file from the given path.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a Schema. Field order follows the document.
func Parse(data []byte) (*Schema, error) {
	var s Schema

	err := yaml.Unmarshal(data, &s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema YAML: %w", err)
	}

	applyDefaults(&s)

	return &s, nil
}

// applyDefaults turns an empty document into an empty shared schema.
func applyDefaults(s *Schema) {
	if s.Shared == nil && s.Request == nil && s.Response == nil {
		s.Shared = &Node{}
	}
}

// UnmarshalYAML implements custom YAML unmarshaling for Schema.
// Accepts either a plain schema mapping or a mapping of direction keys.
func (s *Schema) UnmarshalYAML(n *yaml.Node) error {
	n = resolveAlias(n)

	if isNull(n) {
		*s = Schema{Shared: &Node{}}
		return nil
	}

	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("schema must be a mapping, got %s", kindName(n))
	}

	if !isDirectionalYAML(n) {
		node, err := nodeFromYAML(n)
		if err != nil {
			return err
		}

		*s = Schema{Shared: node}

		return nil
	}

	var out Schema

	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value

		node, err := nodeFromYAML(n.Content[i+1])
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}

		if err := out.setSide(key, node); err != nil {
			return err
		}
	}

	*s = out

	return nil
}

func (s *Schema) setSide(key string, node *Node) error {
	target := &s.Request
	if key == KeyResponse || key == KeyTo {
		target = &s.Response
	}

	if *target != nil {
		return fmt.Errorf("direction %q declared twice", key)
	}

	*target = node

	return nil
}

func isDirectionalYAML(n *yaml.Node) bool {
	if len(n.Content) == 0 {
		return false
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		if !isDirectionKey(n.Content[i].Value) || resolveAlias(n.Content[i+1]).Kind != yaml.MappingNode {
			return false
		}
	}

	return true
}

func nodeFromYAML(n *yaml.Node) (*Node, error) {
	n = resolveAlias(n)

	if isNull(n) {
		return &Node{}, nil
	}

	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected mapping, got %s", kindName(n))
	}

	node := &Node{}

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, value := n.Content[i], resolveAlias(n.Content[i+1])
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: keys must be scalars", keyNode.Line)
		}

		key := keyNode.Value

		switch key {
		case DirectiveCopy:
			fields, err := copyFromYAML(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", value.Line, DirectiveCopy, err)
			}

			node.Copy = append(node.Copy, fields...)

			continue
		case DirectivePrefix:
			if value.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: %s must be a path", value.Line, DirectivePrefix)
			}

			node.Prefix = value.Value

			continue
		}

		switch value.Kind {
		case yaml.MappingNode:
			nested, err := nodeFromYAML(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}

			node.Fields = append(node.Fields, Field{Key: key, Nested: nested})
		case yaml.ScalarNode:
			src := value.Value
			if isNull(value) {
				src = "null"
			}

			node.Fields = append(node.Fields, Field{Key: key, Source: src})
		default:
			return nil, fmt.Errorf("line %d: field %q: expected a path, an expression or a mapping, got %s",
				value.Line, key, kindName(value))
		}
	}

	return node, nil
}

// copyFromYAML accepts a single field name or a list of them.
func copyFromYAML(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if isNull(n) || n.Value == "" {
			return nil, nil
		}

		return []string{n.Value}, nil

	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))

		for _, item := range n.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("expected field name, got %s", kindName(item))
			}

			out = append(out, item.Value)
		}

		return out, nil

	default:
		return nil, fmt.Errorf("expected string or array, got %s", kindName(n))
	}
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}

	if n != nil && n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return resolveAlias(n.Content[0])
	}

	return n
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "unknown node"
	}
}

// FromMap builds a Schema from a decoded document. Map iteration order is not
// defined, so fields are sorted by key.
func FromMap(m map[string]any) (*Schema, error) {
	if m == nil {
		return &Schema{Shared: &Node{}}, nil
	}

	if !isDirectionalMap(m) {
		node, err := nodeFromMap(m)
		if err != nil {
			return nil, err
		}

		return &Schema{Shared: node}, nil
	}

	var s Schema

	for _, key := range common.SortedKeys(m) {
		node, err := nodeFromMap(m[key].(map[string]any))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}

		if err := s.setSide(key, node); err != nil {
			return nil, err
		}
	}

	return &s, nil
}

func isDirectionalMap(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}

	for key, value := range m {
		if _, ok := value.(map[string]any); !ok || !isDirectionKey(key) {
			return false
		}
	}

	return true
}

func nodeFromMap(m map[string]any) (*Node, error) {
	node := &Node{}

	for _, key := range common.SortedKeys(m) {
		value := m[key]

		switch key {
		case DirectiveCopy:
			fields, err := copyFromValue(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", DirectiveCopy, err)
			}

			node.Copy = append(node.Copy, fields...)

			continue
		case DirectivePrefix:
			prefix, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be a path, got %T", DirectivePrefix, value)
			}

			node.Prefix = prefix

			continue
		}

		switch v := value.(type) {
		case map[string]any:
			nested, err := nodeFromMap(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}

			node.Fields = append(node.Fields, Field{Key: key, Nested: nested})
		case string:
			node.Fields = append(node.Fields, Field{Key: key, Source: v})
		case nil:
			node.Fields = append(node.Fields, Field{Key: key, Source: "null"})
		case bool, int, int32, int64, uint, uint32, uint64, float32, float64:
			node.Fields = append(node.Fields, Field{Key: key, Source: fmt.Sprint(v)})
		default:
			return nil, fmt.Errorf("field %q: expected a path, an expression or a mapping, got %T", key, value)
		}
	}

	return node, nil
}

func copyFromValue(v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if x == "" {
			return nil, nil
		}

		return []string{x}, nil
	case []string:
		return x, nil
	case []any:
		out := make([]string, 0, len(x))

		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected field name, got %T", item)
			}

			out = append(out, s)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("expected string or array, got %T", v)
	}
}
