package primary

import (
	"context"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
)

// JobInitiator is the surface the outer adapters (HTTP, signals) drive.
type JobInitiator interface {
	// RequestJob hands a job to the least busy worker, or reports it
	// unfinished when the cluster is awaiting death.
	RequestJob(ctx context.Context, identifier domain.ChannelIdentifier, task string) error

	// Die stops dispatching and waits for every worker to exit.
	Die(ctx context.Context) error

	// Undie resumes normal operation. Discouraged; restart the process instead.
	Undie(ctx context.Context) error

	AwaitingDeath(ctx context.Context) (bool, error)

	Snapshot(ctx context.Context) ([]domain.WorkerSnapshot, error)
}
