package memory

import (
	"context"
	"testing"

	"github.com/alfredjeanlab/scout/internal/model"
	"github.com/alfredjeanlab/scout/internal/store"
	"github.com/alfredjeanlab/scout/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return New() })
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	rec := storetest.Record(model.KindMatch, "r1", 10, `{"a":1}`)
	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rec.Data[0] = 'X'

	got, err := s.FindByID(ctx, model.KindMatch, "r1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if string(got.Data) != `{"a":1}` {
		t.Fatalf("stored data aliased caller memory: %s", got.Data)
	}
	got.Data[0] = 'Y'
	again, _ := s.FindByID(ctx, model.KindMatch, "r1")
	if string(again.Data) != `{"a":1}` {
		t.Fatalf("returned data aliased table memory: %s", again.Data)
	}
}

func TestClosed(t *testing.T) {
	s := New()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("Ping on closed store should fail")
	}
	if _, err := s.Scan(context.Background(), model.KindPit, store.Filter{}); err == nil {
		t.Fatal("Scan on closed store should fail")
	}
}

func TestUnknownKind(t *testing.T) {
	s := New()
	if _, err := s.FindByID(context.Background(), "scrimmage", "r1"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
