// Package store defines the persistence contract for scouting records.
// Records live in one table per kind; the sync engine layers
// last-writer-wins semantics on top of these primitives.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/alfredjeanlab/scout/internal/model"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned by Insert when the id is taken.
	ErrAlreadyExists = errors.New("record already exists")
)

// Filter narrows a Scan.
type Filter struct {
	// StoredAfter keeps only records whose StoredAt is strictly later.
	StoredAfter *time.Time
}

// Match reports whether p passes the filter.
func (f Filter) Match(p *model.PersistedRecord) bool {
	if f.StoredAfter != nil && !p.StoredAt.After(*f.StoredAfter) {
		return false
	}
	return true
}

// Store defines the persistence interface for records.
type Store interface {
	// FindByID returns the record with id, or ErrNotFound.
	FindByID(ctx context.Context, kind model.Kind, id string) (*model.PersistedRecord, error)

	// Insert adds a new record, or returns ErrAlreadyExists.
	Insert(ctx context.Context, rec *model.PersistedRecord) error

	// CompareAndSwap replaces the stored record with next only while the
	// stored timestamps still equal expected's. It reports whether the swap
	// happened.
	CompareAndSwap(ctx context.Context, expected, next *model.PersistedRecord) (bool, error)

	// RemoveByID deletes the record with id and reports whether it existed.
	RemoveByID(ctx context.Context, kind model.Kind, id string) (bool, error)

	// Scan returns every record of kind that passes filter, in insertion order.
	Scan(ctx context.Context, kind model.Kind, filter Filter) ([]*model.PersistedRecord, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// SameVersion reports whether a and b carry identical timestamps, the
// guard CompareAndSwap implementations check.
func SameVersion(a, b *model.PersistedRecord) bool {
	return a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt) &&
		a.StoredAt.Equal(b.StoredAt)
}
