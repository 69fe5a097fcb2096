package secondary

import (
	"context"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
)

type SnapshotRepository interface {
	// SaveSnapshot replaces the mirrored worker table
	SaveSnapshot(ctx context.Context, workers []domain.WorkerSnapshot) error

	// GetAllWorkers reads back the mirrored worker table
	GetAllWorkers(ctx context.Context) ([]domain.WorkerSnapshot, error)
}
