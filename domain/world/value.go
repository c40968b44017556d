package world

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// valueKind discriminates the typed fact values.
type valueKind uint8

const (
	kindBool valueKind = iota
	kindNumber
	kindString
)

// Value is a typed fact value: boolean, number, or string.
// The zero value is the boolean false.
type Value struct {
	kind valueKind
	b    bool
	n    float64
	s    string
}

// Bool creates a boolean value.
func Bool(b bool) Value {
	return Value{kind: kindBool, b: b}
}

// Number creates a numeric value.
func Number(n float64) Value {
	return Value{kind: kindNumber, n: n}
}

// String creates a string value.
func String(s string) Value {
	return Value{kind: kindString, s: s}
}

// FromAny converts a dynamically typed value (as produced by YAML or JSON
// decoding) into a Value.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case bool:
		return Bool(t), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case float64:
		return Number(t), nil
	case string:
		return String(t), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValueType, v)
	}
}

// IsBool reports whether the value is a boolean.
func (v Value) IsBool() bool { return v.kind == kindBool }

// IsNumber reports whether the value is numeric.
func (v Value) IsNumber() bool { return v.kind == kindNumber }

// IsString reports whether the value is a string.
func (v Value) IsString() bool { return v.kind == kindString }

// AsBool returns the boolean value, or false for non-boolean values.
func (v Value) AsBool() bool { return v.kind == kindBool && v.b }

// AsNumber returns the numeric value, or 0 for non-numeric values.
func (v Value) AsNumber() float64 {
	if v.kind != kindNumber {
		return 0
	}
	return v.n
}

// AsString returns the string value, or "" for non-string values.
func (v Value) AsString() string {
	if v.kind != kindString {
		return ""
	}
	return v.s
}

// Equal reports whether two values have the same type and content.
func (v Value) Equal(o Value) bool {
	return v == o
}

// String renders the value for logs and trace entries.
func (v Value) String() string {
	switch v.kind {
	case kindBool:
		return strconv.FormatBool(v.b)
	case kindNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	default:
		return v.s
	}
}

// MarshalJSON encodes the value as its native JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindBool:
		return json.Marshal(v.b)
	case kindNumber:
		return json.Marshal(v.n)
	default:
		return json.Marshal(v.s)
	}
}

// UnmarshalJSON decodes a native JSON boolean, number, or string.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
