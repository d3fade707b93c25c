package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EntryType discriminates the Entry variants.
type EntryType string

const (
	EntrySection  EntryType = "section"
	EntrySpacer   EntryType = "spacer"
	EntryText     EntryType = "text"
	EntrySegment  EntryType = "segment"
	EntryCheckbox EntryType = "checkbox"
	EntryCounter  EntryType = "counter"
	EntryPicture  EntryType = "picture"
)

// Entry is one layout or field definition within a template tab. The set of
// implementations is closed to this package.
type Entry interface {
	Type() EntryType
	// FieldName is the key used in stored record data, or "" when the entry
	// has no name.
	FieldName() string
	isEntry()
}

// SectionEntry is a heading with a prompt and no value.
type SectionEntry struct {
	Name   string `json:"name,omitempty"`
	Prompt string `json:"prompt"`
}

// SpacerEntry is a layout gap with neither prompt nor value.
type SpacerEntry struct {
	Name string `json:"name,omitempty"`
}

// TextEntry captures a string.
type TextEntry struct {
	Name      string  `json:"name"`
	Prompt    string  `json:"prompt"`
	Value     *string `json:"value,omitempty"`
	Numeric   bool    `json:"numeric,omitempty"`
	Multiline bool    `json:"multiline,omitempty"`
	Length    *int    `json:"length,omitempty"`
}

// SegmentEntry captures one key out of a fixed set of options.
type SegmentEntry struct {
	Name     string  `json:"name"`
	Prompt   string  `json:"prompt"`
	Value    *string `json:"value,omitempty"`
	Segments Options `json:"segments"`
}

// CheckboxEntry captures a boolean; checking it clears the entries it excludes.
type CheckboxEntry struct {
	Name     string   `json:"name"`
	Prompt   string   `json:"prompt"`
	Value    bool     `json:"value,omitempty"`
	Excludes []string `json:"excludes,omitempty"`
}

// CounterEntry captures a non-negative integer, optionally capped.
type CounterEntry struct {
	Name     string `json:"name"`
	Prompt   string `json:"prompt"`
	Value    *int   `json:"value,omitempty"`
	MaxValue *int   `json:"maxValue,omitempty"`
}

// PictureEntry is a capture placeholder; it stores no value.
type PictureEntry struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

func (SectionEntry) Type() EntryType  { return EntrySection }
func (SpacerEntry) Type() EntryType   { return EntrySpacer }
func (TextEntry) Type() EntryType     { return EntryText }
func (SegmentEntry) Type() EntryType  { return EntrySegment }
func (CheckboxEntry) Type() EntryType { return EntryCheckbox }
func (CounterEntry) Type() EntryType  { return EntryCounter }
func (PictureEntry) Type() EntryType  { return EntryPicture }

func (e SectionEntry) FieldName() string  { return e.Name }
func (e SpacerEntry) FieldName() string   { return e.Name }
func (e TextEntry) FieldName() string     { return e.Name }
func (e SegmentEntry) FieldName() string  { return e.Name }
func (e CheckboxEntry) FieldName() string { return e.Name }
func (e CounterEntry) FieldName() string  { return e.Name }
func (e PictureEntry) FieldName() string  { return e.Name }

func (SectionEntry) isEntry()  {}
func (SpacerEntry) isEntry()   {}
func (TextEntry) isEntry()     {}
func (SegmentEntry) isEntry()  {}
func (CheckboxEntry) isEntry() {}
func (CounterEntry) isEntry()  {}
func (PictureEntry) isEntry()  {}

// StoredKind reports the scalar type a record stores for e, and false for
// entries that hold no value.
func StoredKind(e Entry) (ValueKind, bool) {
	switch e.(type) {
	case TextEntry, SegmentEntry:
		return ValueString, true
	case CheckboxEntry:
		return ValueBool, true
	case CounterEntry:
		return ValueInt, true
	case SectionEntry, SpacerEntry, PictureEntry:
		return ValueNull, false
	}
	panic(fmt.Sprintf("model: unhandled entry %T", e))
}

// Prompt returns the human-readable prompt of e; spacers have none.
func Prompt(e Entry) string {
	switch e := e.(type) {
	case SectionEntry:
		return e.Prompt
	case SpacerEntry:
		return ""
	case TextEntry:
		return e.Prompt
	case SegmentEntry:
		return e.Prompt
	case CheckboxEntry:
		return e.Prompt
	case CounterEntry:
		return e.Prompt
	case PictureEntry:
		return e.Prompt
	}
	panic(fmt.Sprintf("model: unhandled entry %T", e))
}

// DecodeEntry decodes one entry object using its "type" key.
func DecodeEntry(data []byte) (Entry, error) {
	var head struct {
		Type EntryType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case EntrySection:
		return decodeAs[SectionEntry](data)
	case EntrySpacer:
		return decodeAs[SpacerEntry](data)
	case EntryText:
		return decodeAs[TextEntry](data)
	case EntrySegment:
		return decodeAs[SegmentEntry](data)
	case EntryCheckbox:
		return decodeAs[CheckboxEntry](data)
	case EntryCounter:
		return decodeAs[CounterEntry](data)
	case EntryPicture:
		return decodeAs[PictureEntry](data)
	case "":
		return nil, fmt.Errorf("entry is missing \"type\"")
	}
	return nil, fmt.Errorf("unknown entry type %q", head.Type)
}

func decodeAs[T Entry](data []byte) (Entry, error) {
	var e T
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// The MarshalJSON methods add the "type" discriminator. Each converts to a
// method-less alias so encoding does not recurse.

func (e SectionEntry) MarshalJSON() ([]byte, error) {
	type plain SectionEntry
	return json.Marshal(struct {
		Type EntryType `json:"type"`
		plain
	}{EntrySection, plain(e)})
}

func (e SpacerEntry) MarshalJSON() ([]byte, error) {
	type plain SpacerEntry
	return json.Marshal(struct {
		Type EntryType `json:"type"`
		plain
	}{EntrySpacer, plain(e)})
}

func (e TextEntry) MarshalJSON() ([]byte, error) {
	type plain TextEntry
	return json.Marshal(struct {
		Type EntryType `json:"type"`
		plain
	}{EntryText, plain(e)})
}

func (e SegmentEntry) MarshalJSON() ([]byte, error) {
	type plain SegmentEntry
	return json.Marshal(struct {
		Type EntryType `json:"type"`
		plain
	}{EntrySegment, plain(e)})
}

func (e CheckboxEntry) MarshalJSON() ([]byte, error) {
	type plain CheckboxEntry
	return json.Marshal(struct {
		Type EntryType `json:"type"`
		plain
	}{EntryCheckbox, plain(e)})
}

func (e CounterEntry) MarshalJSON() ([]byte, error) {
	type plain CounterEntry
	return json.Marshal(struct {
		Type EntryType `json:"type"`
		plain
	}{EntryCounter, plain(e)})
}

func (e PictureEntry) MarshalJSON() ([]byte, error) {
	type plain PictureEntry
	return json.Marshal(struct {
		Type EntryType `json:"type"`
		plain
	}{EntryPicture, plain(e)})
}

// validateEntry checks the keys each variant requires.
func validateEntry(ve *ValidationError, path string, e Entry) {
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	switch e := e.(type) {
	case SectionEntry:
		if blank(e.Prompt) {
			ve.add(path+".prompt", "is required")
		}
	case SpacerEntry:
	case TextEntry:
		requireNamed(ve, path, e.Name, e.Prompt)
		if e.Length != nil && *e.Length <= 0 {
			ve.add(path+".length", "must be positive, got %d", *e.Length)
		}
	case SegmentEntry:
		requireNamed(ve, path, e.Name, e.Prompt)
		if len(e.Segments) == 0 {
			ve.add(path+".segments", "must list at least one option")
		}
		keys := make(map[string]bool, len(e.Segments))
		for _, opt := range e.Segments {
			if keys[opt.Key] {
				ve.add(path+".segments", "duplicate option %q", opt.Key)
			}
			keys[opt.Key] = true
		}
		if e.Value != nil && !keys[*e.Value] {
			ve.add(path+".value", "%q is not one of the segments", *e.Value)
		}
	case CheckboxEntry:
		requireNamed(ve, path, e.Name, e.Prompt)
	case CounterEntry:
		requireNamed(ve, path, e.Name, e.Prompt)
		if e.MaxValue != nil && *e.MaxValue < 0 {
			ve.add(path+".maxValue", "must not be negative, got %d", *e.MaxValue)
		}
	case PictureEntry:
		requireNamed(ve, path, e.Name, e.Prompt)
	default:
		panic(fmt.Sprintf("model: unhandled entry %T", e))
	}
}

func requireNamed(ve *ValidationError, path, name, prompt string) {
	if strings.TrimSpace(name) == "" {
		ve.add(path+".name", "is required")
	}
	if strings.TrimSpace(prompt) == "" {
		ve.add(path+".prompt", "is required")
	}
}
