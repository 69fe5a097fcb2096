// Package joblog records job outcomes in PostgreSQL for operators.
package joblog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
)

var (
	_ secondary.JobLogRepository = &JobLogRepository{}
	_ secondary.JobLogReader     = &JobLogRepository{}
)

const schema = `
CREATE TABLE IF NOT EXISTS job_results (
	id          BIGSERIAL PRIMARY KEY,
	job_id      TEXT NOT NULL,
	worker_id   INTEGER NOT NULL,
	task        TEXT NOT NULL,
	identifier  JSONB NOT NULL,
	data        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS job_failures (
	id          BIGSERIAL PRIMARY KEY,
	job_id      TEXT NOT NULL,
	worker_id   INTEGER NOT NULL,
	task        TEXT NOT NULL,
	identifier  JSONB NOT NULL,
	stage       TEXT NOT NULL,
	error       TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS unfinished_jobs (
	id          BIGSERIAL PRIMARY KEY,
	job_id      TEXT NOT NULL,
	task        TEXT NOT NULL,
	identifier  JSONB NOT NULL,
	reason      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
`

// JobLogRepository implements secondary.JobLogRepository with PostgreSQL
type JobLogRepository struct {
	db     *sqlx.DB
	logger primary.Logger
	now    func() time.Time
}

// NewJobLogRepository creates a new PostgreSQL job log
func NewJobLogRepository(db *sqlx.DB, logger primary.Logger) *JobLogRepository {
	return &JobLogRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// EnsureSchema creates the job log tables if they are missing
func (r *JobLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create job log schema: %w", err)
	}
	return nil
}

func (r *JobLogRepository) SaveTaskResult(ctx context.Context, workerID int, result domain.TaskResult) error {
	identifier, err := json.Marshal(result.TaskedIdentifier)
	if err != nil {
		return fmt.Errorf("failed to marshal identifier: %w", err)
	}

	data := "null"
	if len(result.Data) > 0 {
		data = string(result.Data)
	}

	query := `
		INSERT INTO job_results (job_id, worker_id, task, identifier, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query,
		result.TaskedIdentifier.JobID,
		workerID,
		result.TaskedIdentifier.Task,
		string(identifier),
		data,
		r.now(),
	)
	if err != nil {
		r.logger.Error("Failed to save task result", "jobId", result.TaskedIdentifier.JobID, "error", err)
		return fmt.Errorf("failed to save task result: %w", err)
	}
	return nil
}

func (r *JobLogRepository) SaveTaskFailure(ctx context.Context, workerID int, failure domain.TaskFailure) error {
	identifier, err := json.Marshal(failure.TaskedIdentifier)
	if err != nil {
		return fmt.Errorf("failed to marshal identifier: %w", err)
	}

	query := `
		INSERT INTO job_failures (job_id, worker_id, task, identifier, stage, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		failure.TaskedIdentifier.JobID,
		workerID,
		failure.TaskedIdentifier.Task,
		string(identifier),
		string(failure.Stage),
		failure.Error,
		r.now(),
	)
	if err != nil {
		r.logger.Error("Failed to save task failure", "jobId", failure.TaskedIdentifier.JobID, "error", err)
		return fmt.Errorf("failed to save task failure: %w", err)
	}
	return nil
}

func (r *JobLogRepository) SaveUnfinishedJob(ctx context.Context, job domain.TaskedIdentifier, reason string) error {
	identifier, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal identifier: %w", err)
	}

	query := `
		INSERT INTO unfinished_jobs (job_id, task, identifier, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, job.JobID, job.Task, string(identifier), reason, r.now()); err != nil {
		r.logger.Error("Failed to save unfinished job", "jobId", job.JobID, "error", err)
		return fmt.Errorf("failed to save unfinished job: %w", err)
	}
	return nil
}

// ListUnfinishedJobs returns the most recent unfinished jobs, newest first
func (r *JobLogRepository) ListUnfinishedJobs(ctx context.Context, limit int) ([]domain.UnfinishedJobRecord, error) {
	var rows []domain.UnfinishedJobRecord
	query := `SELECT id, job_id, task, identifier, reason, created_at FROM unfinished_jobs ORDER BY id DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list unfinished jobs: %w", err)
	}
	return rows, nil
}

// ListResults returns the most recent results of a job, newest first
func (r *JobLogRepository) ListResults(ctx context.Context, jobID string, limit int) ([]domain.JobResultRecord, error) {
	var rows []domain.JobResultRecord
	query := `SELECT id, job_id, worker_id, task, identifier, data, created_at FROM job_results WHERE job_id = $1 ORDER BY id DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &rows, query, jobID, limit); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return rows, nil
}

// ListFailures returns the most recent failures of a job, newest first
func (r *JobLogRepository) ListFailures(ctx context.Context, jobID string, limit int) ([]domain.JobFailureRecord, error) {
	var rows []domain.JobFailureRecord
	query := `SELECT id, job_id, worker_id, task, identifier, stage, error, created_at FROM job_failures WHERE job_id = $1 ORDER BY id DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &rows, query, jobID, limit); err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}
	return rows, nil
}
