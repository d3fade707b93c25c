package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Template is a versioned schema describing the entries of each record kind.
type Template struct {
	Name     string `json:"name"`
	Identity string `json:"uuid"`
	Version  int    `json:"version"`
	Pit      Tab    `json:"pit"`
	Match    Tab    `json:"match"`
}

// Tab is the ordered entry list for one record kind.
type Tab struct {
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
}

// Section returns the tab for kind, or nil for an unknown kind.
func (t *Template) Section(kind Kind) *Tab {
	switch kind {
	case KindPit:
		return &t.Pit
	case KindMatch:
		return &t.Match
	}
	return nil
}

// Summary is the identifying subset of a Template.
type Summary struct {
	Name     string `json:"name"`
	Identity string `json:"uuid"`
	Version  int    `json:"version"`
}

// Summary returns the identifying fields of t.
func (t *Template) Summary() Summary {
	return Summary{Name: t.Name, Identity: t.Identity, Version: t.Version}
}

// FieldKinds maps every value-bearing entry name in kind's section to the
// scalar type its records store.
func (t *Template) FieldKinds(kind Kind) map[string]ValueKind {
	tab := t.Section(kind)
	if tab == nil {
		return nil
	}
	out := make(map[string]ValueKind)
	for _, e := range tab.Entries {
		if vk, ok := StoredKind(e); ok {
			out[e.FieldName()] = vk
		}
	}
	return out
}

// Validate checks structural rules: identity present, required entry keys
// present, and non-empty entry names unique within each section.
func (t *Template) Validate() error {
	var ve ValidationError
	if strings.TrimSpace(t.Identity) == "" {
		ve.add("uuid", "is required")
	}
	if t.Version < 0 {
		ve.add("version", "must not be negative, got %d", t.Version)
	}
	for _, kind := range Kinds {
		tab := t.Section(kind)
		seen := make(map[string]int)
		for i, e := range tab.Entries {
			path := fmt.Sprintf("%s.entries[%d]", kind, i)
			if e == nil {
				ve.add(path, "is null")
				continue
			}
			validateEntry(&ve, path, e)
			name := e.FieldName()
			if name == "" {
				continue
			}
			if prev, dup := seen[name]; dup {
				ve.add(path+".name", "%q duplicates entries[%d]", name, prev)
				continue
			}
			seen[name] = i
		}
	}
	return ve.errOrNil()
}

// UnmarshalJSON decodes entries through their "type" discriminator.
func (t *Tab) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title   string            `json:"title"`
		Entries []json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	entries := make([]Entry, 0, len(raw.Entries))
	for i, msg := range raw.Entries {
		e, err := DecodeEntry(msg)
		if err != nil {
			return fmt.Errorf("entries[%d]: %w", i, err)
		}
		entries = append(entries, e)
	}
	t.Title = raw.Title
	t.Entries = entries
	return nil
}

// Option is one choice of a segment entry.
type Option struct {
	Key   string
	Label string
}

// Options is an ordered set of segment choices, encoded as a JSON object
// whose key order is significant.
type Options []Option

// MarshalJSON encodes o as an ordered JSON object.
func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		l, err := json.Marshal(opt.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(l)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of string labels, keeping key order.
func (o *Options) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("segments must be a JSON object")
	}
	var out Options
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var label string
		if err := dec.Decode(&label); err != nil {
			return fmt.Errorf("segment %q: %w", key, err)
		}
		out = append(out, Option{Key: key, Label: label})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}
