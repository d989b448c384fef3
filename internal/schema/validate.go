package schema

import (
	"fmt"
	"strings"

	"entity-manager/internal/diagnostic"
	"entity-manager/internal/expr"
	"entity-manager/internal/match"
	"entity-manager/internal/path"
)

var directives = []string{DirectiveCopy, DirectivePrefix}

// Validate checks a schema for keys and leaves the mapper would silently
// skip. source names the schema in the diagnostics.
func Validate(s *Schema, source string) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if s == nil {
		res.AddError("schema_is_nil", "schema is nil", source, "")
		return res
	}

	if !s.IsDirectional() {
		validateNode(res, s.Shared, source, "")
		return res
	}

	if s.Request == nil {
		res.AddInfo("no_request_side", "no request side; outbound data passes through unchanged", source, "")
	} else {
		validateNode(res, s.Request, source, KeyRequest)
	}

	if s.Response == nil {
		res.AddInfo("no_response_side", "no response side; inbound data passes through unchanged", source, "")
	} else {
		validateNode(res, s.Response, source, KeyResponse)
	}

	return res
}

func validateNode(res *diagnostic.Diagnostics, n *Node, source, at string) {
	if n.Prefix != "" {
		if _, err := path.Parse(n.Prefix); err != nil {
			res.AddError("invalid_prefix", fmt.Sprintf("%s %q is not a path", DirectivePrefix, n.Prefix),
				source, join(at, DirectivePrefix))
		}
	}

	for i, name := range n.Copy {
		if strings.TrimSpace(name) == "" {
			res.AddWarning("empty_copy_field", "empty field name in "+DirectiveCopy,
				source, fmt.Sprintf("%s[%d]", join(at, DirectiveCopy), i))
		}
	}

	seen := make(map[string]struct{}, len(n.Fields))

	for _, f := range n.Fields {
		where := join(at, f.Key)

		if strings.TrimSpace(f.Key) == "" {
			res.AddError("empty_key", "empty output key", source, at)
			continue
		}

		if _, dup := seen[f.Key]; dup {
			res.AddError("duplicate_key", fmt.Sprintf("duplicate output key %q", f.Key), source, where)
		}

		seen[f.Key] = struct{}{}

		if strings.HasPrefix(f.Key, "__") {
			res.AddWarning("unknown_directive", fmt.Sprintf("%q looks like a directive but is mapped as a field", f.Key),
				source, where, match.Names(match.Suggest(f.Key, directives, match.DefaultThreshold, 1))...)
		}

		if _, err := path.Parse(f.Key); err != nil {
			res.AddWarning("invalid_key", fmt.Sprintf("output key %q is not a path and is set verbatim", f.Key),
				source, where)
		}

		if f.IsNested() {
			validateNode(res, f.Nested, source, where)
			continue
		}

		validateLeaf(res, f, source, where)
	}
}

func validateLeaf(res *diagnostic.Diagnostics, f Field, source, where string) {
	if strings.TrimSpace(f.Source) == "" {
		res.AddWarning("empty_source", "empty source; the field is never set", source, where)
		return
	}

	if _, err := path.Parse(f.Source); err == nil {
		return
	}

	if _, err := expr.Compile(f.Source); err != nil {
		res.AddWarning("invalid_source", fmt.Sprintf("%q is neither a path nor an expression; the field is never set", f.Source),
			source, where)
	}
}

func join(parent, key string) string {
	if parent == "" {
		return key
	}

	return parent + "." + key
}
