package match

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultThreshold is the minimum similarity for a name to be suggested.
const DefaultThreshold = 0.6

// Normalize folds a name for comparison: lower case, separators ('_', '-',
// '.', ' ') removed.
func Normalize(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if isSeparator(r) {
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || r == ' '
}

// Distance computes the Levenshtein distance between a and b counted in
// runes.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}

	if len(rb) == 0 {
		return len(ra)
	}

	// keep the shorter string in ra so the rows stay small
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)

	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		curr[0] = j

		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(ra)]
}

// Similarity returns 1 for names equal after normalization and tends to 0 as
// they diverge.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)

	longest := max(len([]rune(na)), len([]rune(nb)))
	if longest == 0 {
		return 1.0
	}

	return 1.0 - float64(Distance(na, nb))/float64(longest)
}

// Suggestion is a known name with its similarity to the requested one.
type Suggestion struct {
	Name  string
	Score float64
}

// Suggest returns up to limit candidates whose similarity to name is at least
// threshold, best first. Ties keep alphabetical order. A limit <= 0 means no
// limit.
func Suggest(name string, candidates []string, threshold float64, limit int) []Suggestion {
	var out []Suggestion

	for _, c := range candidates {
		if c == name {
			continue
		}

		score := Similarity(name, c)
		if score >= threshold {
			out = append(out, Suggestion{Name: c, Score: score})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}

		return out[i].Name < out[j].Name
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}

// Names extracts the names of suggestions.
func Names(s []Suggestion) []string {
	names := make([]string, len(s))
	for i := range s {
		names[i] = s[i].Name
	}

	return names
}
