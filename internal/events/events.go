// Package events publishes record lifecycle notifications.
package events

import (
	"context"

	"github.com/alfredjeanlab/scout/internal/model"
)

// Event topic constants
const (
	TopicRecordCreated = "scout.record.created"
	TopicRecordUpdated = "scout.record.updated"
	TopicRecordStale   = "scout.record.stale"
	TopicRecordDeleted = "scout.record.deleted"

	// TopicAll matches every topic above.
	TopicAll = "scout.>"
)

// Headers set on every message so subscribers can filter without decoding
// the payload.
const (
	HeaderKind     = "Scout-Kind"
	HeaderRecordID = "Scout-Record-Id"
)

// Event is one notification about a single record.
type Event struct {
	Topic    string
	Kind     model.Kind
	RecordID string
	Payload  any
}

// RecordCreated is published after a record is inserted.
type RecordCreated struct {
	Record *model.Record `json:"record"`
}

// RecordUpdated is published after an upsert replaces a stored record.
type RecordUpdated struct {
	Record *model.Record `json:"record"`
}

// RecordStale is published when an upsert loses to a newer stored
// version. Record is the version that was kept.
type RecordStale struct {
	Record           *model.Record `json:"record"`
	CandidateUpdated int64         `json:"candidateUpdated"`
}

// RecordDeleted is published after a record is removed.
type RecordDeleted struct {
	Kind     model.Kind `json:"type"`
	RecordID string     `json:"uuid"`
}

// Created wraps a newly inserted record.
func Created(r *model.Record) Event {
	return Event{Topic: TopicRecordCreated, Kind: r.Kind, RecordID: r.RecordID, Payload: RecordCreated{Record: r}}
}

// Updated wraps a record that replaced an older stored version.
func Updated(r *model.Record) Event {
	return Event{Topic: TopicRecordUpdated, Kind: r.Kind, RecordID: r.RecordID, Payload: RecordUpdated{Record: r}}
}

// Stale wraps the kept record after a candidate with the given updated
// time (epoch ms) was discarded.
func Stale(kept *model.Record, candidateUpdated int64) Event {
	return Event{
		Topic:    TopicRecordStale,
		Kind:     kept.Kind,
		RecordID: kept.RecordID,
		Payload:  RecordStale{Record: kept, CandidateUpdated: candidateUpdated},
	}
}

// Deleted reports the removal of kind/id.
func Deleted(kind model.Kind, id string) Event {
	return Event{Topic: TopicRecordDeleted, Kind: kind, RecordID: id, Payload: RecordDeleted{Kind: kind, RecordID: id}}
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NoopPublisher drops every event. It stands in when NATS is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
