package secondary

import (
	"context"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
)

// JobLogRepository records job outcomes for operators. Nothing reads it back
// on startup.
type JobLogRepository interface {
	// SaveUnfinishedJob records a job that could not be dispatched
	SaveUnfinishedJob(ctx context.Context, job domain.TaskedIdentifier, reason string) error

	// SaveTaskResult records a relayed result
	SaveTaskResult(ctx context.Context, workerID int, result domain.TaskResult) error

	// SaveTaskFailure records a failed job
	SaveTaskFailure(ctx context.Context, workerID int, failure domain.TaskFailure) error
}

// JobLogReader reads recorded outcomes back for operators, newest first
type JobLogReader interface {
	ListUnfinishedJobs(ctx context.Context, limit int) ([]domain.UnfinishedJobRecord, error)
	ListResults(ctx context.Context, jobID string, limit int) ([]domain.JobResultRecord, error)
	ListFailures(ctx context.Context, jobID string, limit int) ([]domain.JobFailureRecord, error)
}
