package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	base := Options{
		URL:                "/users",
		Header:             map[string]string{"Accept": "json", "X-A": "1"},
		Criteria:           map[string]any{"age": 3},
		RequestTransformer: "user",
	}
	over := Options{
		Header:              map[string]string{"X-A": "2"},
		Criteria:            map[string]any{"l": 1},
		Data:                map[string]any{"name": "Ada"},
		ResponseTransformer: "user",
	}

	out := Merge(base, over)

	assert.Equal(t, Options{
		URL:                 "/users",
		Header:              map[string]string{"Accept": "json", "X-A": "2"},
		Criteria:            map[string]any{"age": 3, "l": 1},
		Data:                map[string]any{"name": "Ada"},
		RequestTransformer:  "user",
		ResponseTransformer: "user",
	}, out)

	// inputs are untouched
	assert.Equal(t, "1", base.Header["X-A"])
	assert.NotContains(t, base.Criteria, "l")
}

func TestMerge_Empty(t *testing.T) {
	assert.Equal(t, Options{}, Merge(Options{}, Options{}))
	assert.Equal(t, Options{URL: "/a"}, MergeAll(Options{}, Options{URL: "/b"}, Options{URL: "/a"}))
}
