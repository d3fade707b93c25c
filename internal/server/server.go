// Package server exposes the sync engine and template registry over HTTP,
// plus an optional gRPC health endpoint for orchestrators.
package server

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/scout/internal/engine"
	"github.com/alfredjeanlab/scout/internal/events"
	"github.com/alfredjeanlab/scout/internal/templates"
)

// UpsertHeader carries the outcome of POST /{kind}.
const UpsertHeader = "X-Scout-Upsert"

// Server binds the engine and registry to their transports.
type Server struct {
	engine    *engine.Engine
	registry  *templates.Registry
	publisher events.Publisher
	logger    *slog.Logger
}

// New returns a Server. A nil publisher disables events; a nil logger
// uses slog.Default().
func New(e *engine.Engine, reg *templates.Registry, p events.Publisher, logger *slog.Logger) *Server {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:    e,
		registry:  reg,
		publisher: p,
		logger:    logger,
	}
}

// publish emits ev. Failures are logged and never reach the caller.
func (s *Server) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish event", "topic", ev.Topic, "kind", ev.Kind, "uuid", ev.RecordID, "error", err)
	}
}
