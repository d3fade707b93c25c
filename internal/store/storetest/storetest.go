// Package storetest holds behavioural tests every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alfredjeanlab/scout/internal/model"
	"github.com/alfredjeanlab/scout/internal/store"
)

// Record builds a persisted record with millisecond timestamps derived
// from updated.
func Record(kind model.Kind, id string, updated int64, data string) *model.PersistedRecord {
	return &model.PersistedRecord{
		RecordID:         id,
		TemplateIdentity: "tmpl",
		TemplateVersion:  1,
		Kind:             kind,
		CreatedAt:        time.UnixMilli(1_000).UTC(),
		UpdatedAt:        time.UnixMilli(updated).UTC(),
		StoredAt:         time.UnixMilli(updated + 1).UTC(),
		Data:             []byte(data),
	}
}

// Run exercises newStore against the store.Store contract. newStore must
// return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("InsertAndFind", func(t *testing.T) {
		s := newStore(t)
		rec := Record(model.KindMatch, "r1", 10, `{"score":5}`)
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		got, err := s.FindByID(ctx, model.KindMatch, "r1")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		assertEqual(t, got, rec)
	})

	t.Run("FindMissing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.FindByID(ctx, model.KindPit, "nope"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("FindByID = %v, want ErrNotFound", err)
		}
	})

	t.Run("KindsAreSeparate", func(t *testing.T) {
		s := newStore(t)
		if err := s.Insert(ctx, Record(model.KindPit, "r1", 10, `{}`)); err != nil {
			t.Fatalf("Insert pit: %v", err)
		}
		if _, err := s.FindByID(ctx, model.KindMatch, "r1"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("match table sees pit record: %v", err)
		}
		if err := s.Insert(ctx, Record(model.KindMatch, "r1", 10, `{}`)); err != nil {
			t.Fatalf("same id in another kind: %v", err)
		}
	})

	t.Run("InsertDuplicate", func(t *testing.T) {
		s := newStore(t)
		rec := Record(model.KindMatch, "r1", 10, `{}`)
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if err := s.Insert(ctx, rec); !errors.Is(err, store.ErrAlreadyExists) {
			t.Fatalf("second Insert = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("CompareAndSwap", func(t *testing.T) {
		s := newStore(t)
		old := Record(model.KindMatch, "r1", 10, `{"score":5}`)
		if err := s.Insert(ctx, old); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		next := Record(model.KindMatch, "r1", 20, `{"score":7}`)
		ok, err := s.CompareAndSwap(ctx, old, next)
		if err != nil || !ok {
			t.Fatalf("CompareAndSwap = %v, %v; want true", ok, err)
		}
		got, _ := s.FindByID(ctx, model.KindMatch, "r1")
		assertEqual(t, got, next)

		// old no longer matches the stored version.
		ok, err = s.CompareAndSwap(ctx, old, Record(model.KindMatch, "r1", 30, `{}`))
		if err != nil || ok {
			t.Fatalf("stale CompareAndSwap = %v, %v; want false", ok, err)
		}
		got, _ = s.FindByID(ctx, model.KindMatch, "r1")
		assertEqual(t, got, next)
	})

	t.Run("CompareAndSwapMissing", func(t *testing.T) {
		s := newStore(t)
		rec := Record(model.KindPit, "ghost", 10, `{}`)
		ok, err := s.CompareAndSwap(ctx, rec, rec)
		if err != nil || ok {
			t.Fatalf("CompareAndSwap on missing = %v, %v; want false", ok, err)
		}
	})

	t.Run("RemoveByID", func(t *testing.T) {
		s := newStore(t)
		if err := s.Insert(ctx, Record(model.KindPit, "r1", 10, `{}`)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		removed, err := s.RemoveByID(ctx, model.KindPit, "r1")
		if err != nil || !removed {
			t.Fatalf("RemoveByID = %v, %v; want true", removed, err)
		}
		removed, err = s.RemoveByID(ctx, model.KindPit, "r1")
		if err != nil || removed {
			t.Fatalf("second RemoveByID = %v, %v; want false", removed, err)
		}
		if _, err := s.FindByID(ctx, model.KindPit, "r1"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("FindByID after remove = %v", err)
		}
	})

	t.Run("ScanOrderAndFilter", func(t *testing.T) {
		s := newStore(t)
		for _, r := range []*model.PersistedRecord{
			Record(model.KindMatch, "c", 30, `{}`),
			Record(model.KindMatch, "a", 10, `{}`),
			Record(model.KindMatch, "b", 20, `{}`),
		} {
			if err := s.Insert(ctx, r); err != nil {
				t.Fatalf("Insert %s: %v", r.RecordID, err)
			}
		}
		all, err := s.Scan(ctx, model.KindMatch, store.Filter{})
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		assertIDs(t, all, "c", "a", "b")

		// StoredAt is updated+1; strictly after 11 drops "a".
		cutoff := time.UnixMilli(11).UTC()
		since, err := s.Scan(ctx, model.KindMatch, store.Filter{StoredAfter: &cutoff})
		if err != nil {
			t.Fatalf("Scan since: %v", err)
		}
		assertIDs(t, since, "c", "b")

		none, err := s.Scan(ctx, model.KindPit, store.Filter{})
		if err != nil {
			t.Fatalf("Scan pit: %v", err)
		}
		if len(none) != 0 {
			t.Fatalf("Scan pit = %d records, want 0", len(none))
		}
	})

	t.Run("ScanAfterRemove", func(t *testing.T) {
		s := newStore(t)
		for _, id := range []string{"a", "b", "c"} {
			if err := s.Insert(ctx, Record(model.KindPit, id, 10, `{}`)); err != nil {
				t.Fatalf("Insert %s: %v", id, err)
			}
		}
		if _, err := s.RemoveByID(ctx, model.KindPit, "a"); err != nil {
			t.Fatalf("RemoveByID: %v", err)
		}
		all, err := s.Scan(ctx, model.KindPit, store.Filter{})
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		assertIDs(t, all, "b", "c")
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		if err := s.Ping(ctx); err != nil {
			t.Fatalf("Ping: %v", err)
		}
	})
}

func assertEqual(t *testing.T, got, want *model.PersistedRecord) {
	t.Helper()
	if got.RecordID != want.RecordID ||
		got.TemplateIdentity != want.TemplateIdentity ||
		got.TemplateVersion != want.TemplateVersion ||
		got.Kind != want.Kind ||
		!store.SameVersion(got, want) ||
		string(got.Data) != string(want.Data) {
		t.Fatalf("record mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func assertIDs(t *testing.T, recs []*model.PersistedRecord, want ...string) {
	t.Helper()
	if len(recs) != len(want) {
		t.Fatalf("got %d records, want %d", len(recs), len(want))
	}
	for i, id := range want {
		if recs[i].RecordID != id {
			t.Fatalf("records[%d] = %s, want %s", i, recs[i].RecordID, id)
		}
	}
}
