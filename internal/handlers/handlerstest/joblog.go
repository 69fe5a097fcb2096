package handlerstest

import (
	"context"
	"sync"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
)

var _ secondary.JobLogReader = &FakeJobLog{}

// FakeJobLog serves fixed records and remembers the last query.
type FakeJobLog struct {
	mu sync.Mutex

	Unfinished []domain.UnfinishedJobRecord
	Results    []domain.JobResultRecord
	Failures   []domain.JobFailureRecord
	Err        error

	lastJobID string
	lastLimit int
}

func (f *FakeJobLog) ListUnfinishedJobs(ctx context.Context, limit int) ([]domain.UnfinishedJobRecord, error) {
	f.record("", limit)
	return f.Unfinished, f.Err
}

func (f *FakeJobLog) ListResults(ctx context.Context, jobID string, limit int) ([]domain.JobResultRecord, error) {
	f.record(jobID, limit)
	return f.Results, f.Err
}

func (f *FakeJobLog) ListFailures(ctx context.Context, jobID string, limit int) ([]domain.JobFailureRecord, error) {
	f.record(jobID, limit)
	return f.Failures, f.Err
}

func (f *FakeJobLog) record(jobID string, limit int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastJobID = jobID
	f.lastLimit = limit
}

// LastQuery returns the job id and limit of the latest call.
func (f *FakeJobLog) LastQuery() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastJobID, f.lastLimit
}
