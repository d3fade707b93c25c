package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/alfredjeanlab/scout/internal/model"
	"github.com/alfredjeanlab/scout/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// recordRowColumns is the column list for scanRecord results.
var recordRowColumns = []string{
	"record_id", "template_uuid", "template_version",
	"created_at", "updated_at", "stored_at", "data",
}

func testRecord(id string) *model.PersistedRecord {
	base := time.UnixMilli(1_700_000_000_000).UTC()
	return &model.PersistedRecord{
		RecordID:         id,
		TemplateIdentity: "tmpl-a",
		TemplateVersion:  2,
		Kind:             model.KindMatch,
		CreatedAt:        base,
		UpdatedAt:        base.Add(time.Second),
		StoredAt:         base.Add(2 * time.Second),
		Data:             []byte(`{"score":5}`),
	}
}

func addRecordRow(rows *sqlmock.Rows, r *model.PersistedRecord) *sqlmock.Rows {
	return rows.AddRow(r.RecordID, r.TemplateIdentity, r.TemplateVersion,
		r.CreatedAt, r.UpdatedAt, r.StoredAt, r.Data)
}

func TestTableFor(t *testing.T) {
	for _, tc := range []struct {
		kind    model.Kind
		want    string
		wantErr bool
	}{
		{model.KindPit, "pit_records", false},
		{model.KindMatch, "match_records", false},
		{"pit; DROP TABLE pit_records", "", true},
		{"", "", true},
	} {
		got, err := tableFor(tc.kind)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("tableFor(%q) = %q, %v", tc.kind, got, err)
		}
	}
}

func TestQueryFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	want := testRecord("r1")

	mock.ExpectQuery("SELECT .+ FROM match_records WHERE record_id = \\$1").WithArgs("r1").
		WillReturnRows(addRecordRow(sqlmock.NewRows(recordRowColumns), want))

	got, err := queryFindByID(context.Background(), db, model.KindMatch, "r1")
	if err != nil {
		t.Fatalf("queryFindByID: %v", err)
	}
	if got.Kind != model.KindMatch || !store.SameVersion(got, want) || string(got.Data) != string(want.Data) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestQueryFindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT .+ FROM pit_records WHERE record_id = \\$1").WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := queryFindByID(context.Background(), db, model.KindPit, "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected store.ErrNotFound, got %v", err)
	}
}

func TestQueryInsert(t *testing.T) {
	db, mock := newMockDB(t)
	r := testRecord("r1")

	mock.ExpectExec("INSERT INTO match_records .+ ON CONFLICT \\(record_id\\) DO NOTHING").
		WithArgs(r.RecordID, r.TemplateIdentity, r.TemplateVersion, r.CreatedAt, r.UpdatedAt, r.StoredAt, r.Data).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryInsert(context.Background(), db, r); err != nil {
		t.Fatalf("queryInsert: %v", err)
	}
}

func TestQueryInsertConflict(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO match_records").WillReturnResult(sqlmock.NewResult(0, 0))

	err := queryInsert(context.Background(), db, testRecord("r1"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected store.ErrAlreadyExists, got %v", err)
	}
}

func TestQueryCompareAndSwap(t *testing.T) {
	for _, tc := range []struct {
		name     string
		affected int64
		want     bool
	}{
		{"Swapped", 1, true},
		{"VersionMoved", 0, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			old := testRecord("r1")
			next := testRecord("r1")
			next.UpdatedAt = old.UpdatedAt.Add(time.Minute)
			next.StoredAt = old.StoredAt.Add(time.Minute)

			mock.ExpectExec("UPDATE match_records SET .+ WHERE record_id = \\$1\\s+AND created_at = \\$8 AND updated_at = \\$9 AND stored_at = \\$10").
				WithArgs(next.RecordID, next.TemplateIdentity, next.TemplateVersion,
					next.CreatedAt, next.UpdatedAt, next.StoredAt, next.Data,
					old.CreatedAt, old.UpdatedAt, old.StoredAt).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			got, err := queryCompareAndSwap(context.Background(), db, old, next)
			if err != nil {
				t.Fatalf("queryCompareAndSwap: %v", err)
			}
			if got != tc.want {
				t.Fatalf("swapped = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestQueryRemoveByID(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("DELETE FROM pit_records WHERE record_id = \\$1").WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM pit_records WHERE record_id = \\$1").WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := queryRemoveByID(context.Background(), db, model.KindPit, "r1")
	if err != nil || !removed {
		t.Fatalf("first remove = %v, %v", removed, err)
	}
	removed, err = queryRemoveByID(context.Background(), db, model.KindPit, "r1")
	if err != nil || removed {
		t.Fatalf("second remove = %v, %v", removed, err)
	}
}

func TestQueryScan(t *testing.T) {
	db, mock := newMockDB(t)
	a, b := testRecord("a"), testRecord("b")
	rows := sqlmock.NewRows(recordRowColumns)
	addRecordRow(rows, a)
	addRecordRow(rows, b)

	mock.ExpectQuery("SELECT .+ FROM match_records ORDER BY seq").WillReturnRows(rows)

	got, err := queryScan(context.Background(), db, model.KindMatch, store.Filter{})
	if err != nil {
		t.Fatalf("queryScan: %v", err)
	}
	if len(got) != 2 || got[0].RecordID != "a" || got[1].RecordID != "b" {
		t.Fatalf("queryScan = %+v", got)
	}
}

func TestQueryScanStoredAfter(t *testing.T) {
	db, mock := newMockDB(t)
	cutoff := time.UnixMilli(1_700_000_000_000).UTC()

	mock.ExpectQuery("SELECT .+ FROM pit_records WHERE stored_at > \\$1 ORDER BY seq").
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows(recordRowColumns))

	got, err := queryScan(context.Background(), db, model.KindPit, store.Filter{StoredAfter: &cutoff})
	if err != nil {
		t.Fatalf("queryScan: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("queryScan = %d records, want 0", len(got))
	}
}

func TestQueryScanError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT .+ FROM match_records").WillReturnError(fmt.Errorf("connection reset"))

	if _, err := queryScan(context.Background(), db, model.KindMatch, store.Filter{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestPostgresStoreDelegates(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectExec("DELETE FROM match_records").WithArgs("r9").
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := s.RemoveByID(context.Background(), model.KindMatch, "r9")
	if err != nil || !removed {
		t.Fatalf("RemoveByID = %v, %v", removed, err)
	}
}
