package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrTypeMismatch is returned when an accessor is used on a value of a different kind.
	ErrTypeMismatch = errors.New("value type mismatch")
	// ErrNotFound is returned when a lookup path does not resolve to a value.
	ErrNotFound = errors.New("value not found")
)

// Kind identifies the JSON type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	s    string // string contents, or the number literal
	obj  Object
	arr  []Value
}

// Object maps keys to values.
type Object map[string]Value

// Null returns the null value.
func Null() Value { return Value{} }

// BoolOf wraps a boolean.
func BoolOf(b bool) Value { return Value{kind: KindBool, b: b} }

// NumberOf wraps a number literal.
func NumberOf(n json.Number) Value { return Value{kind: KindNumber, s: n.String()} }

// StringOf wraps a string.
func StringOf(s string) Value { return Value{kind: KindString, s: s} }

// ObjectOf wraps an object. A nil object is stored as an empty one.
func ObjectOf(o Object) Value {
	if o == nil {
		o = Object{}
	}
	return Value{kind: KindObject, obj: o}
}

// ArrayOf wraps an ordered sequence of values.
func ArrayOf(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Kind reports the JSON type of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) mismatch(want Kind) error {
	return fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, want, v.kind)
}

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch(KindBool)
	}
	return v.b, nil
}

// Number returns the number literal held by v.
func (v Value) Number() (json.Number, error) {
	if v.kind != KindNumber {
		return "", v.mismatch(KindNumber)
	}
	return json.Number(v.s), nil
}

// Float64 returns the number held by v as a float64.
func (v Value) Float64() (float64, error) {
	n, err := v.Number()
	if err != nil {
		return 0, err
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	return f, nil
}

// Int64 returns the number held by v as an int64. Non-integral numbers and
// numbers outside the int64 range are a type mismatch.
func (v Value) Int64() (int64, error) {
	n, err := v.Number()
	if err != nil {
		return 0, err
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrTypeMismatch, v.s)
	}
	return int64(f), nil
}

// Str returns the string held by v.
func (v Value) Str() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch(KindString)
	}
	return v.s, nil
}

// Object returns the object held by v.
func (v Value) Object() (Object, error) {
	if v.kind != KindObject {
		return nil, v.mismatch(KindObject)
	}
	return v.obj, nil
}

// Array returns the elements held by v.
func (v Value) Array() ([]Value, error) {
	if v.kind != KindArray {
		return nil, v.mismatch(KindArray)
	}
	return v.arr, nil
}

// Interface converts v into plain Go values: nil, bool, json.Number, string,
// map[string]any and []any. The result shares nothing with v.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return json.Number(v.s)
	case KindString:
		return v.s
	case KindObject:
		return v.obj.Interface()
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether v and other hold structurally equal values. Numbers
// compare by literal text.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber, KindString:
		return v.s == other.s
	case KindObject:
		return v.obj.Equal(other.obj)
	case KindArray:
		return slices.EqualFunc(v.arr, other.arr, Value.Equal)
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON implements json.Unmarshaler for any JSON document.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := decodeAny(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	v, ok := o[key]
	return v, ok
}

// Keys returns the object's keys in sorted order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Interface converts o into a map[string]any.
func (o Object) Interface() map[string]any {
	out := make(map[string]any, len(o))
	for k, v := range o {
		out[k] = v.Interface()
	}
	return out
}

// Equal reports whether o and other hold the same keys with equal values.
func (o Object) Equal(other Object) bool {
	if len(o) != len(other) {
		return false
	}
	for k, v := range o {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Lookup resolves a dotted path such as "FEATURES_GATE.SUPPORTED_LANGUAGES.0".
// Array segments are decimal indices. An empty path returns the object itself.
func (o Object) Lookup(path string) (Value, error) {
	current := ObjectOf(o)
	if path == "" {
		return current, nil
	}

	segments := strings.Split(path, ".")
	for i, segment := range segments {
		at := strings.Join(segments[:i+1], ".")
		switch current.kind {
		case KindObject:
			next, ok := current.obj[segment]
			if !ok {
				return Value{}, fmt.Errorf("%w: %s", ErrNotFound, at)
			}
			current = next
		case KindArray:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(current.arr) {
				return Value{}, fmt.Errorf("%w: %s", ErrNotFound, at)
			}
			current = current.arr[idx]
		default:
			return Value{}, fmt.Errorf("%w: cannot descend into %s at %s", ErrTypeMismatch, current.kind, at)
		}
	}
	return current, nil
}
