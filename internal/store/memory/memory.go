// Package memory implements store.Store in process memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/alfredjeanlab/scout/internal/model"
	"github.com/alfredjeanlab/scout/internal/store"
)

// Store keeps one insertion-ordered table per kind. Records are cloned on
// the way in and out so callers never share memory with the table.
type Store struct {
	mu     sync.RWMutex
	tables map[model.Kind]*table
	closed bool
}

type table struct {
	rows  []*model.PersistedRecord
	index map[string]int // record id -> position in rows
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	s := &Store{tables: make(map[model.Kind]*table, len(model.Kinds))}
	for _, k := range model.Kinds {
		s.tables[k] = &table{index: make(map[string]int)}
	}
	return s
}

func (s *Store) table(kind model.Kind) (*table, error) {
	if s.closed {
		return nil, fmt.Errorf("memory store is closed")
	}
	t, ok := s.tables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	return t, nil
}

func (s *Store) FindByID(_ context.Context, kind model.Kind, id string) (*model.PersistedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	i, ok := t.index[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t.rows[i].Clone(), nil
}

func (s *Store) Insert(_ context.Context, rec *model.PersistedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(rec.Kind)
	if err != nil {
		return err
	}
	if _, ok := t.index[rec.RecordID]; ok {
		return store.ErrAlreadyExists
	}
	t.index[rec.RecordID] = len(t.rows)
	t.rows = append(t.rows, rec.Clone())
	return nil
}

func (s *Store) CompareAndSwap(_ context.Context, expected, next *model.PersistedRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(next.Kind)
	if err != nil {
		return false, err
	}
	i, ok := t.index[next.RecordID]
	if !ok || !store.SameVersion(t.rows[i], expected) {
		return false, nil
	}
	t.rows[i] = next.Clone()
	return true, nil
}

func (s *Store) RemoveByID(_ context.Context, kind model.Kind, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(kind)
	if err != nil {
		return false, err
	}
	i, ok := t.index[id]
	if !ok {
		return false, nil
	}
	t.rows = slices.Delete(t.rows, i, i+1)
	delete(t.index, id)
	for j := i; j < len(t.rows); j++ {
		t.index[t.rows[j].RecordID] = j
	}
	return true, nil
}

func (s *Store) Scan(_ context.Context, kind model.Kind, filter store.Filter) ([]*model.PersistedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	var out []*model.PersistedRecord
	for _, r := range t.rows {
		if filter.Match(r) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("memory store is closed")
	}
	return nil
}

// Close marks the store closed; later calls fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
