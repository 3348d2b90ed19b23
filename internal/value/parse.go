package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var (
	// ErrNotObject is returned when a document's top-level value is not a JSON object.
	ErrNotObject = errors.New("top-level JSON value is not an object")
	// ErrInvalidUTF8 is returned when a document is not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("document is not valid UTF-8")
	// ErrTrailingData is returned when bytes follow the top-level value.
	ErrTrailingData = errors.New("unexpected data after top-level value")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse decodes a UTF-8 JSON document whose top-level value is an object.
func Parse(data []byte) (Object, error) {
	v, err := decodeAny(data)
	if err != nil {
		return nil, err
	}
	if v.kind != KindObject {
		return nil, fmt.Errorf("%w: got %s", ErrNotObject, v.kind)
	}
	return v.obj, nil
}

func decodeAny(data []byte) (Value, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return Value{}, ErrInvalidUTF8
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, fmt.Errorf("decode JSON: empty document: %w", io.ErrUnexpectedEOF)
		}
		return Value{}, fmt.Errorf("decode JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, ErrTrailingData
	}

	return FromAny(raw)
}

// FromAny converts values produced by encoding/json (or built by hand) into a
// Value. Supported inputs are nil, bool, json.Number, float64, int, int64,
// string, map[string]any, []any, Value and Object.
func FromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case Object:
		return ObjectOf(x), nil
	case bool:
		return BoolOf(x), nil
	case json.Number:
		return NumberOf(x), nil
	case float64:
		return numberFromJSON(x)
	case int:
		return numberFromJSON(x)
	case int64:
		return numberFromJSON(x)
	case string:
		return StringOf(x), nil
	case map[string]any:
		obj := make(Object, len(x))
		for k, item := range x {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			obj[k] = v
		}
		return ObjectOf(obj), nil
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = v
		}
		return ArrayOf(items...), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported Go type %T", ErrTypeMismatch, raw)
	}
}

func numberFromJSON(n any) (Value, error) {
	literal, err := json.Marshal(n)
	if err != nil {
		return Value{}, fmt.Errorf("encode number: %w", err)
	}
	return NumberOf(json.Number(literal)), nil
}
