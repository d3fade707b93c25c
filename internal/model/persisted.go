package model

import (
	"fmt"
	"time"
)

// PersistedRecord is the store-facing form of a Record: indexed scalar
// columns plus the field set as an opaque encoded blob.
type PersistedRecord struct {
	RecordID         string
	TemplateIdentity string
	TemplateVersion  int
	Kind             Kind
	CreatedAt        time.Time
	UpdatedAt        time.Time
	StoredAt         time.Time
	Data             []byte
}

// ToPersisted encodes r's fields into the blob and copies the scalar columns.
func ToPersisted(r *Record) (*PersistedRecord, error) {
	data, err := r.Fields.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return &PersistedRecord{
		RecordID:         r.RecordID,
		TemplateIdentity: r.TemplateIdentity,
		TemplateVersion:  r.TemplateVersion,
		Kind:             r.Kind,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		StoredAt:         r.StoredAt,
		Data:             data,
	}, nil
}

// ToWire decodes p's blob back into fields and copies the scalar columns.
func ToWire(p *PersistedRecord) (*Record, error) {
	var fields Fields
	if len(p.Data) > 0 {
		if err := fields.UnmarshalJSON(p.Data); err != nil {
			return nil, fmt.Errorf("decode fields of %s: %w", p.RecordID, err)
		}
	}
	return &Record{
		RecordID:         p.RecordID,
		TemplateIdentity: p.TemplateIdentity,
		TemplateVersion:  p.TemplateVersion,
		Kind:             p.Kind,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		StoredAt:         p.StoredAt,
		Fields:           fields,
	}, nil
}

// Clone returns a deep copy of p.
func (p *PersistedRecord) Clone() *PersistedRecord {
	c := *p
	c.Data = append([]byte(nil), p.Data...)
	return &c
}
