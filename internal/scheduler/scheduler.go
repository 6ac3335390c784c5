// Package scheduler implements a tick-based periodic sampling loop.
// It takes a snapshot at a configurable interval and hands it to every
// registered subscriber. The scheduler does NOT publish data itself; the
// websocket hub and terminal UI subscribe through OnSnapshot.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/dashboard/internal/models"
)

// Source produces snapshots. *sampler.Sampler satisfies it.
type Source interface {
	Sample(ctx context.Context) (*models.Snapshot, error)
}

// Scheduler manages periodic sampling.
type Scheduler struct {
	source   Source
	interval time.Duration
	logger   *zap.Logger

	subsMu sync.RWMutex
	subs   []func(*models.Snapshot)
}

// New creates a new Scheduler sampling source every interval.
func New(source Source, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		source:   source,
		interval: interval,
		logger:   logger,
	}
}

// OnSnapshot registers a callback invoked with every successful snapshot.
// Callbacks run on the scheduler goroutine and must not block for long.
func (s *Scheduler) OnSnapshot(fn func(*models.Snapshot)) {
	s.subsMu.Lock()
	s.subs = append(s.subs, fn)
	s.subsMu.Unlock()
}

// Start begins the sampling loop. It blocks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Do an initial sample immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick takes one snapshot and fans it out. Failures are logged and the next
// tick simply tries again.
func (s *Scheduler) tick(ctx context.Context) {
	snap, err := s.source.Sample(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("Sampling failed", zap.Error(err))
		}
		return
	}

	s.logger.Debug("Sampled", zap.Time("timestamp", snap.Timestamp))

	s.subsMu.RLock()
	subs := make([]func(*models.Snapshot), len(s.subs))
	copy(subs, s.subs)
	s.subsMu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
}
