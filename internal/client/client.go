// Package client provides a transport-agnostic interface for the scout
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"
	"time"

	"github.com/alfredjeanlab/scout/internal/model"
)

// ScoutClient is the interface the scout CLI commands use to communicate
// with the server.
type ScoutClient interface {
	// Templates
	GetTemplate(ctx context.Context, req *GetTemplateRequest) (*model.Template, error)
	ListTemplates(ctx context.Context) ([]model.Summary, error)

	// Records
	ListRecords(ctx context.Context, kind model.Kind, since *time.Time) ([]*model.Record, error)
	UpsertRecord(ctx context.Context, kind model.Kind, rec *model.Record) (*UpsertResponse, error)
	DeleteRecord(ctx context.Context, kind model.Kind, id string) (bool, error)
	ExportCSV(ctx context.Context, kind model.Kind) ([]byte, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// GetTemplateRequest selects a template. An empty Identity asks for the
// server default; a nil Version asks for the latest.
type GetTemplateRequest struct {
	Identity string
	Version  *int
}

// UpsertResponse is the stored record after a push and what the server did
// with the submitted version.
type UpsertResponse struct {
	Record  *model.Record
	Outcome string // created, applied or stale
}
