// Package backup periodically snapshots every stored record to one or
// more destinations as JSON lines.
package backup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/scout/internal/model"
)

// Destination is the interface for a snapshot target (S3, local file).
type Destination interface {
	// Name identifies the destination in logs.
	Name() string
	// Write stores snap.
	Write(ctx context.Context, snap *Snapshot) error
}

// Scheduler runs periodic snapshots to one or more destinations.
type Scheduler struct {
	source       Lister
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger
	now          func() time.Time

	// written holds the digest last stored at each destination. It is only
	// touched by RunOnce, which never runs concurrently with itself.
	written []string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from source to the given
// destinations at the specified interval.
func NewScheduler(source Lister, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		source:       source,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
		now:          time.Now,
		written:      make([]string, len(destinations)),
	}
}

// Start begins periodic snapshots. It takes one immediately, then one on
// each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current snapshot (if any)
// to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce takes a single snapshot and writes it to every destination
// whose last stored snapshot differs. A failing destination is logged and
// retried on the next run without stopping the others.
func (s *Scheduler) RunOnce(ctx context.Context) {
	snap, err := Take(ctx, s.source, s.now())
	if err != nil {
		s.logger.Error("backup export failed", "err", err)
		return
	}

	var wrote, skipped, failed int
	for i, dest := range s.destinations {
		if s.written[i] == snap.Digest {
			skipped++
			continue
		}
		if err := dest.Write(ctx, snap); err != nil {
			failed++
			s.logger.Error("backup destination write failed", "destination", dest.Name(), "err", err)
			continue
		}
		s.written[i] = snap.Digest
		wrote++
	}

	s.logger.Info("backup completed",
		"written", wrote, "unchanged", skipped, "failed", failed,
		"pit", snap.Counts[model.KindPit], "match", snap.Counts[model.KindMatch], "bytes", len(snap.Data))
}
