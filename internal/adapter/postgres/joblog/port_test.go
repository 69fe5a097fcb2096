package joblog

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/adapter/logging"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
)

// Runs against a real database when JOBINITIATOR_TEST_DATABASE_URL is set.
func testRepo(t *testing.T) *JobLogRepository {
	t.Helper()
	url := os.Getenv("JOBINITIATOR_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("JOBINITIATOR_TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewJobLogRepository(db, logging.NewNopLogger())
	ctx := context.Background()
	require.NoError(t, repo.EnsureSchema(ctx))
	_, err = db.ExecContext(ctx, `TRUNCATE job_results, job_failures, unfinished_jobs`)
	require.NoError(t, err)
	return repo
}

func job(id string) domain.TaskedIdentifier {
	params, _ := domain.NewParams([]interface{}{"a", 1})
	return domain.ChannelIdentifier{
		RequesterIP: "10.0.0.1",
		ResponderIP: "10.0.0.2",
		TargetIP:    "10.0.0.3",
		JobID:       id,
		Params:      params,
	}.WithTask("resize")
}

func TestSaveAndListUnfinished(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveUnfinishedJob(ctx, job("j1"), "awaiting death"))
	require.NoError(t, repo.SaveUnfinishedJob(ctx, job("j2"), "no worker available"))

	rows, err := repo.ListUnfinishedJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "j2", rows[0].JobID)
	assert.Equal(t, "no worker available", rows[0].Reason)
	assert.Equal(t, "resize", rows[1].Task)
	assert.JSONEq(t, `{"requesterIp":"10.0.0.1","responderIp":"10.0.0.2","targetIp":"10.0.0.3","jobId":"j1","params":["a",1],"task":"resize"}`, string(rows[1].Identifier))
}

func TestSaveResultAndFailure(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveTaskResult(ctx, 3, domain.TaskResult{TaskedIdentifier: job("j1"), Data: []byte(`{"ok":true}`)}))
	require.NoError(t, repo.SaveTaskFailure(ctx, 4, domain.TaskFailure{TaskedIdentifier: job("j1"), Stage: domain.StageStream, Error: "reset"}))

	results, err := repo.ListResults(ctx, "j1", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].WorkerID)
	assert.JSONEq(t, `{"ok":true}`, string(results[0].Data))

	failures, err := repo.ListFailures(ctx, "j1", 10)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "stream", failures[0].Stage)
	assert.Equal(t, "reset", failures[0].Error)
}
