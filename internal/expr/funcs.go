package expr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// DefaultFuncs are the functions available when a Scope does not set Funcs.
// All of them are pure.
var DefaultFuncs = map[string]Func{
	"upper":    stringFunc("upper", strings.ToUpper),
	"lower":    stringFunc("lower", strings.ToLower),
	"trim":     stringFunc("trim", strings.TrimSpace),
	"concat":   concat,
	"join":     join,
	"len":      lengthOf,
	"string":   toString,
	"number":   toNumber,
	"coalesce": coalesce,
}

func stringFunc(name string, f func(string) string) Func {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: %s expects 1 argument, got %d", ErrEval, name, len(args))
		}

		if args[0] == nil {
			return nil, fmt.Errorf("%w: %s of null", ErrEval, name)
		}

		return f(stringify(args[0])), nil
	}
}

func concat(args ...any) (any, error) {
	var b strings.Builder

	for _, a := range args {
		if a == nil {
			continue
		}

		b.WriteString(stringify(a))
	}

	return b.String(), nil
}

func join(args ...any) (any, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, fmt.Errorf("%w: join expects 1 or 2 arguments", ErrEval)
	}

	list, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: join expects a list", ErrEval)
	}

	sep := ","
	if len(args) == 2 {
		sep = stringify(args[1])
	}

	parts := make([]string, len(list))
	for i, item := range list {
		parts[i] = stringify(item)
	}

	return strings.Join(parts, sep), nil
}

func lengthOf(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: len expects 1 argument", ErrEval)
	}

	n, ok := length(args[0])
	if !ok {
		return nil, fmt.Errorf("%w: len of %s", ErrEval, stringify(args[0]))
	}

	return float64(n), nil
}

func length(x any) (int, bool) {
	switch c := x.(type) {
	case string:
		return len([]rune(c)), true
	case []any:
		return len(c), true
	case map[string]any:
		return len(c), true
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	default:
		return 0, false
	}
}

func toString(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: string expects 1 argument", ErrEval)
	}

	return stringify(args[0]), nil
}

func toNumber(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: number expects 1 argument", ErrEval)
	}

	switch v := args[0].(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrEval, v)
		}

		return f, nil
	case bool:
		if v {
			return 1.0, nil
		}

		return 0.0, nil
	}

	f, ok := ToNumber(args[0])
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a number", ErrEval, stringify(args[0]))
	}

	return f, nil
}

func coalesce(args ...any) (any, error) {
	for _, a := range args {
		if a != nil {
			return a, nil
		}
	}

	return nil, nil
}

// stringify renders a value the way string concatenation does.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x)
	}

	if f, ok := ToNumber(v); ok {
		return formatFloat(f)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	return string(b)
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Sprint(f)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToNumber converts numeric Go values to float64. Booleans and strings are
// not numbers here; use the number() function for explicit conversion.
func ToNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case interface{ Float64() (float64, error) }:
		f, err := x.Float64()
		return f, err == nil
	}

	return 0, false
}
