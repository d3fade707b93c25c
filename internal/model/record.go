package model

import (
	"encoding/json"
	"time"
)

// Record is one scouting report in wire form.
type Record struct {
	RecordID         string
	TemplateIdentity string
	TemplateVersion  int
	Kind             Kind
	CreatedAt        time.Time
	UpdatedAt        time.Time
	StoredAt         time.Time // zero until the engine persists the record
	Fields           Fields
}

// wireRecord is the JSON shape clients exchange. Pointers distinguish a
// missing key from a zero value.
type wireRecord struct {
	UUID            *string `json:"uuid"`
	TemplateUUID    *string `json:"templateUuid"`
	TemplateVersion *int    `json:"templateVersion"`
	Type            Kind    `json:"type,omitempty"`
	Created         *int64  `json:"created"`
	Updated         *int64  `json:"updated"`
	StoredAt        *int64  `json:"storedAt"`
	Data            *Fields `json:"data"`
}

// MarshalJSON encodes r with timestamps as epoch milliseconds.
func (r Record) MarshalJSON() ([]byte, error) {
	created := r.CreatedAt.UnixMilli()
	updated := r.UpdatedAt.UnixMilli()
	w := wireRecord{
		UUID:            &r.RecordID,
		TemplateUUID:    &r.TemplateIdentity,
		TemplateVersion: &r.TemplateVersion,
		Type:            r.Kind,
		Created:         &created,
		Updated:         &updated,
		Data:            &r.Fields,
	}
	if !r.StoredAt.IsZero() {
		stored := r.StoredAt.UnixMilli()
		w.StoredAt = &stored
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form. Missing required keys produce a
// *ValidationError; "type" and "storedAt" are optional.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var ve ValidationError
	if w.UUID == nil {
		ve.add("uuid", "is required")
	}
	if w.TemplateUUID == nil {
		ve.add("templateUuid", "is required")
	}
	if w.TemplateVersion == nil {
		ve.add("templateVersion", "is required")
	}
	if w.Created == nil {
		ve.add("created", "is required")
	}
	if w.Updated == nil {
		ve.add("updated", "is required")
	}
	if w.Data == nil {
		ve.add("data", "is required")
	}
	if ve.HasErrors() {
		return &ve
	}

	*r = Record{
		RecordID:         *w.UUID,
		TemplateIdentity: *w.TemplateUUID,
		TemplateVersion:  *w.TemplateVersion,
		Kind:             w.Type,
		CreatedAt:        fromMillis(*w.Created),
		UpdatedAt:        fromMillis(*w.Updated),
		Fields:           *w.Data,
	}
	if w.StoredAt != nil {
		r.StoredAt = fromMillis(*w.StoredAt)
	}
	return nil
}

// Equal reports whether r and o describe the same record state.
func (r *Record) Equal(o *Record) bool {
	return r.RecordID == o.RecordID &&
		r.TemplateIdentity == o.TemplateIdentity &&
		r.TemplateVersion == o.TemplateVersion &&
		r.Kind == o.Kind &&
		r.CreatedAt.Equal(o.CreatedAt) &&
		r.UpdatedAt.Equal(o.UpdatedAt) &&
		r.StoredAt.Equal(o.StoredAt) &&
		r.Fields.Equal(o.Fields)
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	c.Fields = r.Fields.Clone()
	return &c
}

// TruncateMillis returns t in UTC at the millisecond precision of the wire form.
func TruncateMillis(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
