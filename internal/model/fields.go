package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one key/value pair of a record's field set.
type Field struct {
	Key   string
	Value Value
}

// Fields is an insertion-ordered mapping from entry name to Value.
// The zero value is an empty set ready to use.
type Fields struct {
	keys []string
	vals map[string]Value
}

// NewFields builds a field set from pairs, in order.
func NewFields(pairs ...Field) Fields {
	var f Fields
	for _, p := range pairs {
		f.Set(p.Key, p.Value)
	}
	return f
}

// Len returns the number of fields.
func (f Fields) Len() int { return len(f.keys) }

// Keys returns the field names in insertion order.
func (f Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Get returns the value stored under key.
func (f Fields) Get(key string) (Value, bool) {
	v, ok := f.vals[key]
	return v, ok
}

// Set stores v under key. A new key is appended; an existing key keeps its
// position.
func (f *Fields) Set(key string, v Value) {
	if f.vals == nil {
		f.vals = make(map[string]Value)
	}
	if _, ok := f.vals[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.vals[key] = v
}

// Clone returns an independent copy of f.
func (f Fields) Clone() Fields {
	out := Fields{keys: f.Keys()}
	if f.vals != nil {
		out.vals = make(map[string]Value, len(f.vals))
		for k, v := range f.vals {
			out.vals[k] = v
		}
	}
	return out
}

// Equal reports whether f and o hold the same keys, in the same order, with
// equal values.
func (f Fields) Equal(o Fields) bool {
	if len(f.keys) != len(o.keys) {
		return false
	}
	for i, k := range f.keys {
		if o.keys[i] != k {
			return false
		}
		if !f.vals[k].Equal(o.vals[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes f as a JSON object, preserving key order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := f.vals[k].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object of scalars, preserving key order.
// A repeated key keeps its first position and its last value.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = Fields{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fields must be a JSON object")
	}

	var out Fields
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("invalid field key %v", tok)
		}
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		v, err := valueFromToken(tok)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}
