package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a        string
		b        string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"a", "b", 1},
		{"ab", "abc", 1},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		// counted in runes, not bytes
		{"héllo", "hello", 1},
		{"日本", "日本語", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, Distance(tt.a, tt.b))
			assert.Equal(t, tt.expected, Distance(tt.b, tt.a), "symmetry")
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"UserSchema", "userschema"},
		{"user_schema", "userschema"},
		{"user-schema", "userschema"},
		{"user.schema", "userschema"},
		{"USER SCHEMA", "userschema"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Normalize(tt.input), tt.input)
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("user_dates", "UserDates"), 1e-9)
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
	assert.Greater(t, Similarity("userDate", "userDates"), 0.8)
}

func TestSuggest(t *testing.T) {
	known := []string{"unwrapData", "unwrap_date", "dates", "userSchema", "camelize"}

	got := Suggest("unwrapDate", known, DefaultThreshold, 2)
	assert.Equal(t, []string{"unwrap_date", "unwrapData"}, Names(got))

	assert.Empty(t, Suggest("zzz", known, DefaultThreshold, 0))
	assert.Empty(t, Suggest("dates", []string{"dates"}, 0, 0), "exact names are not suggestions")

	all := Suggest("x", []string{"b", "a"}, 0, 0)
	assert.Equal(t, []string{"a", "b"}, Names(all), "ties sorted by name")
}
