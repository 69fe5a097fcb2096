// Package schedulerengine runs the master's periodic background work.
package schedulerengine

import (
	"context"
	"time"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
)

const saveTimeout = 5 * time.Second

// Snapshotter is the part of the cluster the engine reads.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]domain.WorkerSnapshot, error)
}

type SchedulerEngine struct {
	interval time.Duration
	source   Snapshotter
	repo     secondary.SnapshotRepository
	logger   primary.Logger
}

func NewSchedulerEngine(
	interval time.Duration,
	source Snapshotter,
	repo secondary.SnapshotRepository,
	logger primary.Logger,
) *SchedulerEngine {
	return &SchedulerEngine{
		interval: interval,
		source:   source,
		repo:     repo,
		logger:   logger,
	}
}

// Run mirrors the worker table every interval until ctx is canceled.
func (s *SchedulerEngine) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.MirrorWorkers(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.MirrorWorkers(ctx)
		}
	}
}

// MirrorWorkers saves one snapshot. Failures are logged and retried on the
// next tick.
func (s *SchedulerEngine) MirrorWorkers(ctx context.Context) {
	workers, err := s.source.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("Failed to snapshot workers", "error", err)
		return
	}

	saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := s.repo.SaveSnapshot(saveCtx, workers); err != nil {
		s.logger.Error("Failed to mirror workers", "error", err)
		return
	}
	s.logger.Debug("Workers mirrored", "count", len(workers))
}
