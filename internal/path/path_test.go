package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Segment
	}{
		{
			name:     "simple field",
			input:    "name",
			expected: []Segment{{Key: "name"}},
		},
		{
			name:     "nested field",
			input:    "address.street",
			expected: []Segment{{Key: "address"}, {Key: "street"}},
		},
		{
			name:     "index",
			input:    "items[2].sku",
			expected: []Segment{{Key: "items"}, {Index: 2, IsIndex: true}, {Key: "sku"}},
		},
		{
			name:     "double quoted key",
			input:    `meta["content-type"]`,
			expected: []Segment{{Key: "meta"}, {Key: "content-type"}},
		},
		{
			name:     "single quoted key with bracket",
			input:    "meta['a]b'].c",
			expected: []Segment{{Key: "meta"}, {Key: "a]b"}, {Key: "c"}},
		},
		{
			name:     "dollar and underscore identifiers",
			input:    "_id.$oid",
			expected: []Segment{{Key: "_id"}, {Key: "$oid"}},
		},
		{
			name:     "leading bracket",
			input:    "[0].id",
			expected: []Segment{{Index: 0, IsIndex: true}, {Key: "id"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.Segments)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		".name",
		"name.",
		"a..b",
		"a + 1",
		"42",
		"'pending'",
		"items[",
		"items[x]",
		"items[-1]",
		"a.[0]",
		`a["open]`,
	}

	for _, input := range invalid {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestPath_String(t *testing.T) {
	for _, input := range []string{"a", "a.b", "items[3].sku", `meta["content-type"].x`} {
		p := MustParse(input)
		assert.Equal(t, input, p.String())
	}
}

func TestGet(t *testing.T) {
	doc := map[string]any{
		"a":     map[string]any{"b": 5.0},
		"items": []any{map[string]any{"sku": "x1"}, "second"},
		"nil":   nil,
		"typed": map[string]string{"k": "v"},
		"list":  []string{"p", "q"},
	}

	v, ok := lookup(doc, "a.b")
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)

	v, ok = lookup(doc, "items[0].sku")
	assert.True(t, ok)
	assert.Equal(t, "x1", v)

	v, ok = lookup(doc, "nil")
	assert.True(t, ok, "present nil is found")
	assert.Nil(t, v)

	v, ok = lookup(doc, "typed.k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	v, ok = lookup(doc, "list[1]")
	assert.True(t, ok)
	assert.Equal(t, "q", v)

	for _, missing := range []string{"a.c", "a.b.c", "items[5]", "items.sku", "nil.x", "nope", "a + b"} {
		_, ok := lookup(doc, missing)
		assert.False(t, ok, missing)
	}
}

func TestGet_IndexOnMap(t *testing.T) {
	doc := map[string]any{"m": map[string]any{"0": "zero"}}

	v, ok := lookup(doc, "m[0]")
	assert.True(t, ok)
	assert.Equal(t, "zero", v)
}

func TestSet(t *testing.T) {
	root := map[string]any{}

	require.NoError(t, assign(root, "x", 1))
	require.NoError(t, assign(root, "a.b.c", "deep"))
	require.NoError(t, assign(root, "list[2].name", "third"))

	assert.Equal(t, 1, root["x"])
	assert.Equal(t, map[string]any{"b": map[string]any{"c": "deep"}}, root["a"])

	list, ok := root["list"].([]any)
	require.True(t, ok)
	require.Len(t, list, 3)
	assert.Nil(t, list[0])
	assert.Equal(t, map[string]any{"name": "third"}, list[2])
}

func TestSet_ExtendsExistingMaps(t *testing.T) {
	root := map[string]any{"a": map[string]any{"keep": true}}

	require.NoError(t, assign(root, "a.added", 2))
	assert.Equal(t, map[string]any{"keep": true, "added": 2}, root["a"])
}

func TestSet_Errors(t *testing.T) {
	root := map[string]any{"scalar": 3}

	assert.Error(t, assign(root, "scalar.x", 1))
	assert.Error(t, assign(root, "[0]", 1))
	assert.Error(t, assign(root, "bad path", 1))
	assert.Error(t, Set(nil, MustParse("a"), 1))
	assert.Equal(t, 3, root["scalar"], "failed assignment leaves data untouched")
}

func lookup(root any, expr string) (any, bool) {
	p, err := Parse(expr)
	if err != nil {
		return nil, false
	}

	return Get(root, p)
}

func assign(root map[string]any, expr string, v any) error {
	p, err := Parse(expr)
	if err != nil {
		return err
	}

	return Set(root, p, v)
}
