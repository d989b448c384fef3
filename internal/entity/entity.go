package entity

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"

	"entity-manager/internal/common"
)

// Identifier field names, in lookup order.
const (
	IDField    = "id"
	AltIDField = "_id"
	// RefIDField is the sub-field holding the id of a structured reference.
	RefIDField = "$oid"
)

// Entity is a record with an optional identifier.
type Entity interface {
	Fields() Fields
	Identifier() (any, bool)
}

// Fields is a plain record. It is an Entity itself.
type Fields map[string]any

// Fields returns f.
func (f Fields) Fields() Fields { return f }

// Identifier returns the identifier of f.
func (f Fields) Identifier() (any, bool) { return Identifier(f) }

// Clone returns a deep copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = common.DeepCopy(v)
	}

	return out
}

// Base is the default entity. Concrete entity kinds embed it.
type Base struct {
	fields Fields
}

// New returns an entity holding every field of init. The copy is shallow:
// nested values are shared with init. A nil init gives an empty entity.
func New(init Fields) *Base {
	fields := make(Fields, len(init))
	for k, v := range init {
		fields[k] = v
	}

	return &Base{fields: fields}
}

// Fields returns the live field map.
func (b *Base) Fields() Fields {
	if b.fields == nil {
		b.fields = make(Fields)
	}

	return b.fields
}

// Identifier returns the identifier of the entity.
func (b *Base) Identifier() (any, bool) {
	return Identifier(b.fields)
}

// Get returns the value of a field.
func (b *Base) Get(key string) any {
	return b.fields[key]
}

// Set assigns a field.
func (b *Base) Set(key string, v any) {
	b.Fields()[key] = v
}

// MarshalJSON encodes the entity as its fields.
func (b *Base) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Fields())
}

// UnmarshalJSON replaces the fields with a decoded JSON object.
func (b *Base) UnmarshalJSON(data []byte) error {
	var fields Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	b.fields = fields

	return nil
}

// Identifier extracts an identifier from fields: "id", else "_id". Falsy
// values (nil, false, zero, "") count as absent. A structured reference yields its "$oid".
func Identifier(fields Fields) (any, bool) {
	for _, key := range []string{IDField, AltIDField} {
		v, ok := fields[key]
		if !ok || isBlank(v) {
			continue
		}

		if ref, isRef := v.(map[string]any); isRef {
			oid, found := ref[RefIDField]
			if !found || isBlank(oid) {
				return nil, false
			}

			return oid, true
		}

		return v, true
	}

	return nil, false
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0 || math.IsNaN(x)
	case float32:
		return x == 0 || math.IsNaN(float64(x))
	case int:
		return x == 0
	case int64:
		return x == 0
	case int32:
		return x == 0
	case uint:
		return x == 0
	case uint64:
		return x == 0
	case uint32:
		return x == 0
	default:
		return false
	}
}

// IDString renders the identifier of e for use in a URL.
func IDString(e Entity) (string, bool) {
	if e == nil {
		return "", false
	}

	id, ok := e.Identifier()
	if !ok {
		return "", false
	}

	return FormatID(id), true
}

// FormatID renders an identifier value. Integral floats print without a
// fraction or exponent.
func FormatID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return strconv.FormatInt(int64(v), 10)
		}

		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
