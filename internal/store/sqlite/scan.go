package sqlite

import (
	"fmt"
	"time"

	"github.com/alfredjeanlab/scout/internal/model"
)

// recordColumns is the column list used for SELECT statements on record tables.
const recordColumns = `record_id, template_uuid, template_version,
	created_at, updated_at, stored_at, data`

type scannable interface {
	Scan(dest ...any) error
}

func tableFor(kind model.Kind) (string, error) {
	switch kind {
	case model.KindPit:
		return "pit_records", nil
	case model.KindMatch:
		return "match_records", nil
	default:
		return "", fmt.Errorf("unknown record kind %q", kind)
	}
}

// scanRecord reads one row; timestamps are stored as epoch milliseconds.
func scanRecord(row scannable, kind model.Kind) (*model.PersistedRecord, error) {
	r := model.PersistedRecord{Kind: kind}
	var created, updated, stored int64
	if err := row.Scan(
		&r.RecordID,
		&r.TemplateIdentity,
		&r.TemplateVersion,
		&created,
		&updated,
		&stored,
		&r.Data,
	); err != nil {
		return nil, err
	}
	r.CreatedAt = time.UnixMilli(created).UTC()
	r.UpdatedAt = time.UnixMilli(updated).UTC()
	r.StoredAt = time.UnixMilli(stored).UTC()
	return &r, nil
}
