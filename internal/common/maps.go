package common

// UnknownStr is the display name for unrecognised enum values.
const UnknownStr = "unknown"

// CloneMap returns a shallow copy of m. A nil map yields an empty map.
func CloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

// MergeMaps returns a new map with the entries of base overridden by those
// of over.
func MergeMaps[K comparable, V any](base, over map[K]V) map[K]V {
	out := CloneMap(base)
	for k, v := range over {
		out[k] = v
	}

	return out
}

// DeepCopy copies nested map[string]any and []any containers. Any other
// value is returned as is.
func DeepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = DeepCopy(item)
		}

		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = DeepCopy(item)
		}

		return out
	default:
		return v
	}
}
