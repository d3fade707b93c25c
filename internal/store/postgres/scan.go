package postgres

import (
	"database/sql"

	"github.com/alfredjeanlab/scout/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanRecord scans a single row into a model.PersistedRecord.
// The row must contain columns in the order defined by recordColumns.
func scanRecord(row scannable, kind model.Kind) (*model.PersistedRecord, error) {
	r := model.PersistedRecord{Kind: kind}
	err := row.Scan(
		&r.RecordID,
		&r.TemplateIdentity,
		&r.TemplateVersion,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.StoredAt,
		&r.Data,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	r.StoredAt = r.StoredAt.UTC()
	return &r, nil
}

// scanRecords scans multiple rows into a slice of model.PersistedRecord pointers.
func scanRecords(rows *sql.Rows, kind model.Kind) ([]*model.PersistedRecord, error) {
	var out []*model.PersistedRecord
	for rows.Next() {
		r, err := scanRecord(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
