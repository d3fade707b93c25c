// Package engine reconciles client-submitted records against the store
// with a last-writer-wins policy and answers full, delta and tabular
// queries.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/scout/internal/keylock"
	"github.com/alfredjeanlab/scout/internal/model"
	"github.com/alfredjeanlab/scout/internal/store"
)

// maxAttempts bounds the find/compare/write loop when another process
// sharing the store wins a race for the same record.
const maxAttempts = 5

// Outcome describes what an upsert did.
type Outcome string

const (
	// OutcomeCreated means no record existed and the candidate was inserted.
	OutcomeCreated Outcome = "created"
	// OutcomeApplied means the candidate replaced an older or equal version.
	OutcomeApplied Outcome = "applied"
	// OutcomeStale means a newer version was already stored and the
	// candidate was discarded.
	OutcomeStale Outcome = "stale"
)

// UpsertResult carries the stored record after an upsert together with
// what happened to the candidate.
type UpsertResult struct {
	Record  *model.Record
	Outcome Outcome
}

// Engine is safe for concurrent use.
type Engine struct {
	store  store.Store
	locks  *keylock.Map
	clock  func() time.Time
	logger *slog.Logger

	stampMu   sync.Mutex
	lastStamp time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for storedAt.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLogger sets the logger used for server-side failure detail.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an Engine over s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		locks:  keylock.New(),
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Upsert merges candidate into the store. The candidate's kind may be
// empty, in which case kind is assumed; a different kind is rejected.
// The returned record is the post-merge stored state.
func (e *Engine) Upsert(ctx context.Context, kind model.Kind, candidate *model.Record) (*UpsertResult, error) {
	if !kind.IsValid() {
		return nil, model.Invalid("type", fmt.Sprintf("invalid value %q", kind))
	}
	if candidate == nil {
		return nil, model.Invalid("body", "record is required")
	}
	cand := candidate.Clone()
	if cand.Kind == "" {
		cand.Kind = kind
	}
	if cand.Kind != kind {
		return nil, model.Invalid("type", fmt.Sprintf("record of type %q posted to %q", cand.Kind, kind))
	}
	if err := model.ValidateRecord(cand); err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(lockKey(kind, cand.RecordID))
	defer unlock()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, retry, err := e.tryUpsert(ctx, cand)
		if err != nil || !retry {
			return res, err
		}
		e.logger.Debug("upsert lost race, retrying", "kind", kind, "uuid", cand.RecordID, "attempt", attempt)
	}
	return nil, storeErr("upsert", ErrContention)
}

func (e *Engine) tryUpsert(ctx context.Context, cand *model.Record) (*UpsertResult, bool, error) {
	existing, err := e.store.FindByID(ctx, cand.Kind, cand.RecordID)
	if errors.Is(err, store.ErrNotFound) {
		next := cand.Clone()
		next.StoredAt = e.stamp(time.Time{})
		p, err := model.ToPersisted(next)
		if err != nil {
			return nil, false, model.Invalid("data", err.Error())
		}
		err = e.store.Insert(ctx, p)
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, true, nil
		}
		if err != nil {
			return nil, false, e.fail("insert", cand, err)
		}
		return &UpsertResult{Record: next, Outcome: OutcomeCreated}, false, nil
	}
	if err != nil {
		return nil, false, e.fail("find", cand, err)
	}

	current, err := model.ToWire(existing)
	if err != nil {
		return nil, false, e.fail("decode", cand, err)
	}
	if cand.UpdatedAt.Before(current.UpdatedAt) {
		return &UpsertResult{Record: current, Outcome: OutcomeStale}, false, nil
	}

	next := cand.Clone()
	next.CreatedAt = current.CreatedAt
	next.StoredAt = e.stamp(current.StoredAt)
	p, err := model.ToPersisted(next)
	if err != nil {
		return nil, false, model.Invalid("data", err.Error())
	}
	swapped, err := e.store.CompareAndSwap(ctx, existing, p)
	if err != nil {
		return nil, false, e.fail("update", cand, err)
	}
	if !swapped {
		return nil, true, nil
	}
	return &UpsertResult{Record: next, Outcome: OutcomeApplied}, false, nil
}

// stamp returns the storedAt for a write: now at millisecond precision,
// bumped so it is strictly later than both the previous stamp issued by
// this engine and floor.
func (e *Engine) stamp(floor time.Time) time.Time {
	e.stampMu.Lock()
	defer e.stampMu.Unlock()
	now := model.TruncateMillis(e.clock())
	if !now.After(e.lastStamp) {
		now = e.lastStamp.Add(time.Millisecond)
	}
	if !now.After(floor) {
		now = floor.Add(time.Millisecond)
	}
	e.lastStamp = now
	return now
}

// List returns every stored record of kind in the store's natural order.
func (e *Engine) List(ctx context.Context, kind model.Kind) ([]*model.Record, error) {
	return e.scan(ctx, kind, store.Filter{})
}

// ListSince returns the records of kind stored strictly after since.
func (e *Engine) ListSince(ctx context.Context, kind model.Kind, since time.Time) ([]*model.Record, error) {
	return e.scan(ctx, kind, store.Filter{StoredAfter: &since})
}

func (e *Engine) scan(ctx context.Context, kind model.Kind, filter store.Filter) ([]*model.Record, error) {
	if !kind.IsValid() {
		return nil, model.Invalid("type", fmt.Sprintf("invalid value %q", kind))
	}
	rows, err := e.store.Scan(ctx, kind, filter)
	if err != nil {
		return nil, storeErr("scan", err)
	}
	out := make([]*model.Record, 0, len(rows))
	for _, p := range rows {
		r, err := model.ToWire(p)
		if err != nil {
			return nil, storeErr("decode", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Delete removes the record with id and reports whether it existed.
func (e *Engine) Delete(ctx context.Context, kind model.Kind, id string) (bool, error) {
	if !kind.IsValid() {
		return false, model.Invalid("type", fmt.Sprintf("invalid value %q", kind))
	}
	if strings.TrimSpace(id) == "" {
		return false, model.Invalid("recordId", "is required")
	}
	unlock := e.locks.Lock(lockKey(kind, id))
	defer unlock()

	removed, err := e.store.RemoveByID(ctx, kind, id)
	if err != nil {
		return false, storeErr("delete", err)
	}
	return removed, nil
}

// Ping checks the store.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

func (e *Engine) fail(op string, r *model.Record, err error) error {
	e.logger.Error("store operation failed", "op", op, "kind", r.Kind, "uuid", r.RecordID, "error", err)
	return storeErr(op, err)
}

func lockKey(kind model.Kind, id string) string {
	return string(kind) + "/" + id
}

// ParseSince decodes a since query value: RFC 3339 (with or without
// fractional seconds) or integer epoch milliseconds.
func ParseSince(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, model.Invalid("since", fmt.Sprintf("unparseable timestamp %q", s))
	}
	return t.UTC(), nil
}
