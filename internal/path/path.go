package path

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// maxIndex bounds slice growth when assigning through an index segment.
const maxIndex = 1 << 16

// Segment is one step of a Path: either a key lookup or a slice index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// String renders the segment the way it would appear after a dot or inside
// brackets.
func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}

	if isIdent(s.Key) {
		return s.Key
	}

	return "[" + strconv.Quote(s.Key) + "]"
}

// Path is a parsed path expression.
type Path struct {
	Segments []Segment
}

// String returns the canonical form of the path.
func (p Path) String() string {
	var b strings.Builder

	for i, seg := range p.Segments {
		if i > 0 && !seg.IsIndex && isIdent(seg.Key) {
			b.WriteByte('.')
		}

		b.WriteString(seg.String())
	}

	return b.String()
}

// IsEmpty returns true if the path has no segments.
func (p Path) IsEmpty() bool {
	return len(p.Segments) == 0
}

// Parse parses a path expression into a Path.
// Supports: "field", "a.b", "items[0]", `a["quoted key"]`, "a['k'].b".
func Parse(expr string) (Path, error) {
	if strings.TrimSpace(expr) == "" {
		return Path{}, errors.New("empty path")
	}

	var segments []Segment

	i := 0
	n := len(expr)
	expectIdent := true

	for i < n {
		c := expr[i]

		switch {
		case c == '.':
			if expectIdent {
				return Path{}, fmt.Errorf("invalid path %q: empty segment at %d", expr, i)
			}

			expectIdent = true
			i++

			if i == n {
				return Path{}, fmt.Errorf("invalid path %q: trailing dot", expr)
			}

		case c == '[':
			seg, next, err := parseBracket(expr, i)
			if err != nil {
				return Path{}, err
			}

			if expectIdent && len(segments) > 0 {
				return Path{}, fmt.Errorf("invalid path %q: bracket after dot at %d", expr, i)
			}

			segments = append(segments, seg)
			i = next
			expectIdent = false

		default:
			if !expectIdent {
				return Path{}, fmt.Errorf("invalid path %q: unexpected %q at %d", expr, c, i)
			}

			j := i
			for j < n && expr[j] != '.' && expr[j] != '[' {
				j++
			}

			name := expr[i:j]
			if !isIdent(name) {
				return Path{}, fmt.Errorf("invalid path %q: invalid identifier %q", expr, name)
			}

			segments = append(segments, Segment{Key: name})
			i = j
			expectIdent = false
		}
	}

	return Path{Segments: segments}, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(expr string) Path {
	p, err := Parse(expr)
	if err != nil {
		panic(err)
	}

	return p
}

func parseBracket(expr string, start int) (Segment, int, error) {
	end := strings.IndexByte(expr[start:], ']')
	if end < 0 {
		return Segment{}, 0, fmt.Errorf("invalid path %q: unclosed bracket at %d", expr, start)
	}

	// quoted keys may contain ']' so find the closing quote first
	inner := expr[start+1:]
	if len(inner) > 0 && (inner[0] == '"' || inner[0] == '\'') {
		quote := inner[0]

		k := 1
		for k < len(inner) && inner[k] != quote {
			if inner[k] == '\\' {
				k++
			}
			k++
		}

		if k+1 >= len(inner) || inner[k+1] != ']' {
			return Segment{}, 0, fmt.Errorf("invalid path %q: unterminated key at %d", expr, start)
		}

		raw := inner[1:k]
		if quote == '\'' {
			raw = strings.ReplaceAll(raw, `\'`, `'`)
			raw = strings.ReplaceAll(raw, `"`, `\"`)
		}

		key, err := strconv.Unquote(`"` + raw + `"`)
		if err != nil {
			return Segment{}, 0, fmt.Errorf("invalid path %q: bad key: %w", expr, err)
		}

		return Segment{Key: key}, start + 1 + k + 2, nil
	}

	body := strings.TrimSpace(expr[start+1 : start+end])

	idx, err := strconv.Atoi(body)
	if err != nil || idx < 0 {
		return Segment{}, 0, fmt.Errorf("invalid path %q: bad index %q", expr, body)
	}

	return Segment{Index: idx, IsIndex: true}, start + end + 1, nil
}

// isIdent checks that s is a path identifier.
func isIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			// First character must be letter, underscore or dollar
			if !isLetter(r) && r != '_' && r != '$' {
				return false
			}
		} else if !isLetter(r) && !isDigit(r) && r != '_' && r != '$' {
			return false
		}
	}

	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Get reads the value addressed by p inside root. The boolean is false when
// any segment is missing; a present nil value reports true.
func Get(root any, p Path) (any, bool) {
	cur := root

	for _, seg := range p.Segments {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}

		cur = next
	}

	return cur, true
}

func step(cur any, seg Segment) (any, bool) {
	switch c := cur.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := c[segKey(seg)]
		return v, ok
	case []any:
		if !seg.IsIndex || seg.Index >= len(c) {
			return nil, false
		}

		return c[seg.Index], true
	}

	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}

		v := rv.MapIndex(reflect.ValueOf(segKey(seg)).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}

		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		if !seg.IsIndex || seg.Index >= rv.Len() {
			return nil, false
		}

		return rv.Index(seg.Index).Interface(), true
	default:
		return nil, false
	}
}

func segKey(seg Segment) string {
	if seg.IsIndex {
		return strconv.Itoa(seg.Index)
	}

	return seg.Key
}

// Set assigns v at p inside root, creating intermediate maps and slices as
// needed. Existing scalars on the way are not overwritten; that is an error.
func Set(root map[string]any, p Path, v any) error {
	if root == nil {
		return errors.New("nil root")
	}

	if p.IsEmpty() {
		return errors.New("empty path")
	}

	if p.Segments[0].IsIndex {
		return fmt.Errorf("path %q: root is not a list", p)
	}

	_, err := setIn(root, p.Segments, v)
	if err != nil {
		return fmt.Errorf("path %q: %w", p, err)
	}

	return nil
}

func setIn(cur any, segs []Segment, v any) (any, error) {
	seg := segs[0]

	if seg.IsIndex {
		s, ok := cur.([]any)
		if cur != nil && !ok {
			return cur, fmt.Errorf("cannot index %T", cur)
		}

		if seg.Index >= maxIndex {
			return cur, fmt.Errorf("index %d out of range", seg.Index)
		}

		if seg.Index >= len(s) {
			grown := make([]any, seg.Index+1)
			copy(grown, s)
			s = grown
		}

		if len(segs) == 1 {
			s[seg.Index] = v
			return s, nil
		}

		child, err := setIn(s[seg.Index], segs[1:], v)
		s[seg.Index] = child

		return s, err
	}

	m, ok := cur.(map[string]any)
	if cur != nil && !ok {
		return cur, fmt.Errorf("cannot set field %q on %T", seg.Key, cur)
	}

	if m == nil {
		m = map[string]any{}
	}

	if len(segs) == 1 {
		m[seg.Key] = v
		return m, nil
	}

	child, err := setIn(m[seg.Key], segs[1:], v)
	if err != nil {
		return m, err
	}

	m[seg.Key] = child

	return m, nil
}
