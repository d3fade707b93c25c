package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/scout/internal/model"
	"github.com/alfredjeanlab/scout/internal/store"
)

// recordColumns is the column list used for SELECT statements on record tables.
const recordColumns = `record_id, template_uuid, template_version,
	created_at, updated_at, stored_at, data`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// tableFor maps a kind to its table. Table names are never built from
// caller input.
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

func queryFindByID(ctx context.Context, db executor, kind model.Kind, id string) (*model.PersistedRecord, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM `+table+` WHERE record_id = $1`, id)
	rec, err := scanRecord(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s record %s: %w", kind, id, err)
	}
	return rec, nil
}

func queryInsert(ctx context.Context, db executor, r *model.PersistedRecord) error {
	table, err := tableFor(r.Kind)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO `+table+` (
			record_id, template_uuid, template_version,
			created_at, updated_at, stored_at, data
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (record_id) DO NOTHING`,
		r.RecordID,
		r.TemplateIdentity,
		r.TemplateVersion,
		r.CreatedAt,
		r.UpdatedAt,
		r.StoredAt,
		r.Data,
	)
	if err != nil {
		return fmt.Errorf("insert %s record %s: %w", r.Kind, r.RecordID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func queryCompareAndSwap(ctx context.Context, db executor, expected, next *model.PersistedRecord) (bool, error) {
	table, err := tableFor(next.Kind)
	if err != nil {
		return false, err
	}
	res, err := db.ExecContext(ctx, `
		UPDATE `+table+` SET
			template_uuid = $2, template_version = $3,
			created_at = $4, updated_at = $5, stored_at = $6, data = $7
		WHERE record_id = $1
			AND created_at = $8 AND updated_at = $9 AND stored_at = $10`,
		next.RecordID,
		next.TemplateIdentity,
		next.TemplateVersion,
		next.CreatedAt,
		next.UpdatedAt,
		next.StoredAt,
		next.Data,
		expected.CreatedAt,
		expected.UpdatedAt,
		expected.StoredAt,
	)
	if err != nil {
		return false, fmt.Errorf("update %s record %s: %w", next.Kind, next.RecordID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func queryRemoveByID(ctx context.Context, db executor, kind model.Kind, id string) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE record_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete %s record %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func queryScan(ctx context.Context, db executor, kind model.Kind, filter store.Filter) ([]*model.PersistedRecord, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + recordColumns + ` FROM ` + table
	var args []any
	if filter.StoredAfter != nil {
		q += ` WHERE stored_at > $1`
		args = append(args, *filter.StoredAfter)
	}
	q += ` ORDER BY seq`

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("scan %s records: %w", kind, err)
	}
	defer rows.Close()
	return scanRecords(rows, kind)
}
