// Package sqlite implements the store.Store interface on an embedded
// SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "modernc.org/sqlite"

	"github.com/alfredjeanlab/scout/internal/model"
	"github.com/alfredjeanlab/scout/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// busyTimeoutMillis bounds how long a writer waits on a locked database.
const busyTimeoutMillis = 5000

// Store implements store.Store backed by a single SQLite file.
type Store struct {
	db *sql.DB
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and runs any
// pending migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve sqlite path: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		abs, busyTimeoutMillis)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection keeps writes serialized
	// without SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}
	return store.Migrate(migrationsFS, "migrations", "sqlite", driver)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) FindByID(ctx context.Context, kind model.Kind, id string) (*model.PersistedRecord, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM `+table+` WHERE record_id = ?`, id)
	rec, err := scanRecord(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s record %s: %w", kind, id, err)
	}
	return rec, nil
}

func (s *Store) Insert(ctx context.Context, r *model.PersistedRecord) error {
	table, err := tableFor(r.Kind)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO `+table+` (
			record_id, template_uuid, template_version,
			created_at, updated_at, stored_at, data
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (record_id) DO NOTHING`,
		r.RecordID,
		r.TemplateIdentity,
		r.TemplateVersion,
		r.CreatedAt.UnixMilli(),
		r.UpdatedAt.UnixMilli(),
		r.StoredAt.UnixMilli(),
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

func (s *Store) CompareAndSwap(ctx context.Context, expected, next *model.PersistedRecord) (bool, error) {
	table, err := tableFor(next.Kind)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE `+table+` SET
			template_uuid = ?, template_version = ?,
			created_at = ?, updated_at = ?, stored_at = ?, data = ?
		WHERE record_id = ?
			AND created_at = ? AND updated_at = ? AND stored_at = ?`,
		next.TemplateIdentity,
		next.TemplateVersion,
		next.CreatedAt.UnixMilli(),
		next.UpdatedAt.UnixMilli(),
		next.StoredAt.UnixMilli(),
		next.Data,
		next.RecordID,
		expected.CreatedAt.UnixMilli(),
		expected.UpdatedAt.UnixMilli(),
		expected.StoredAt.UnixMilli(),
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

func (s *Store) RemoveByID(ctx context.Context, kind model.Kind, id string) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE record_id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete %s record %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Scan(ctx context.Context, kind model.Kind, filter store.Filter) ([]*model.PersistedRecord, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + recordColumns + ` FROM ` + table
	var args []any
	if filter.StoredAfter != nil {
		q += ` WHERE stored_at > ?`
		args = append(args, filter.StoredAfter.UnixMilli())
	}
	q += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("scan %s records: %w", kind, err)
	}
	defer rows.Close()

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
