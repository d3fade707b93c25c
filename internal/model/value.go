package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind tags the scalar type held by a Value.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueString
	ValueInt
	ValueFloat
	ValueBool
)

// String returns the name of the value kind.
func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueString:
		return "string"
	case ValueInt:
		return "int"
	case ValueFloat:
		return "float"
	case ValueBool:
		return "bool"
	}
	return fmt.Sprintf("ValueKind(%d)", uint8(k))
}

// Value is a single scalar field value. The zero Value is null.
//
// Integers and floats are distinct: 5 and 5.0 decode to different kinds and
// encode back to the same literal they came from.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
	b    bool
}

// String returns a string value.
func String(s string) Value { return Value{kind: ValueString, s: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: ValueInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: ValueFloat, f: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: ValueBool, b: b} }

// Null returns the null value.
func Null() Value { return Value{} }

// Kind reports the scalar type of v.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v holds no value.
func (v Value) IsNull() bool { return v.kind == ValueNull }

// AsString returns the string held by v, if any.
func (v Value) AsString() (string, bool) { return v.s, v.kind == ValueString }

// AsInt returns the integer held by v, if any.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == ValueInt }

// AsFloat returns the float held by v, if any.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == ValueFloat }

// AsBool returns the boolean held by v, if any.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == ValueBool }

// Equal reports whether v and o hold the same kind and the same value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueString:
		return v.s == o.s
	case ValueInt:
		return v.i == o.i
	case ValueFloat:
		return math.Float64bits(v.f) == math.Float64bits(o.f)
	case ValueBool:
		return v.b == o.b
	}
	return true
}

// Text renders v as plain text for tabular output. Null renders empty.
func (v Value) Text() string {
	switch v.kind {
	case ValueString:
		return v.s
	case ValueInt:
		return strconv.FormatInt(v.i, 10)
	case ValueFloat:
		return string(formatFloat(v.f))
	case ValueBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

// GoString makes test failures readable.
func (v Value) GoString() string {
	if v.kind == ValueString {
		return strconv.Quote(v.s)
	}
	if v.kind == ValueNull {
		return "null"
	}
	return v.kind.String() + "(" + v.Text() + ")"
}

var errNonFinite = errors.New("non-finite float cannot be encoded")

// MarshalJSON encodes v as a JSON scalar. Floats always carry a fraction or
// exponent so they decode back as floats.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueString:
		return json.Marshal(v.s)
	case ValueInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case ValueFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, errNonFinite
		}
		return formatFloat(v.f), nil
	case ValueBool:
		return strconv.AppendBool(nil, v.b), nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes a JSON scalar into v. Objects and arrays are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	parsed, err := valueFromToken(tok)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// valueFromToken converts a scalar token produced by a json.Decoder with
// UseNumber enabled.
func valueFromToken(tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return parseNumber(t.String())
	case json.Delim:
		return Value{}, fmt.Errorf("field values must be scalars, got %s", t)
	}
	return Value{}, fmt.Errorf("unsupported JSON token %v", tok)
}

func parseNumber(lit string) (Value, error) {
	if strings.ContainsAny(lit, ".eE") {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float %s: %w", lit, err)
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("integer %s out of range", lit)
	}
	return Int(i), nil
}

func formatFloat(f float64) []byte {
	b := strconv.AppendFloat(nil, f, 'g', -1, 64)
	if !bytes.ContainsAny(b, ".eE") {
		b = append(b, '.', '0')
	}
	return b
}
