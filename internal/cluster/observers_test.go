package cluster

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/adapter/logging"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
)

type fakeJobLog struct {
	mu         sync.Mutex
	results    []string
	failures   []string
	unfinished []string
	err        error
}

func (f *fakeJobLog) SaveUnfinishedJob(ctx context.Context, job domain.TaskedIdentifier, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unfinished = append(f.unfinished, job.JobID+":"+reason)
	return f.err
}

func (f *fakeJobLog) SaveTaskResult(ctx context.Context, workerID int, result domain.TaskResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result.TaskedIdentifier.JobID)
	return f.err
}

func (f *fakeJobLog) SaveTaskFailure(ctx context.Context, workerID int, failure domain.TaskFailure) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, failure.TaskedIdentifier.JobID)
	return f.err
}

func taskedJob(id string) domain.TaskedIdentifier {
	return domain.ChannelIdentifier{JobID: id, TargetIP: "127.0.0.1"}.WithTask("t")
}

func TestJobLogObserverWritesJobEvents(t *testing.T) {
	repo := &fakeJobLog{}
	obs := NewJobLogObserver(repo, logging.NewNopLogger())

	obs.HandleEvent(domain.TaskCompleted{WorkerID: 1, Result: domain.TaskResult{TaskedIdentifier: taskedJob("a")}})
	obs.HandleEvent(domain.TaskFailed{WorkerID: 1, Failure: domain.TaskFailure{TaskedIdentifier: taskedJob("b"), Stage: domain.StageConnect}})
	obs.HandleEvent(domain.JobUnfinished{Identifier: taskedJob("c"), Reason: "awaiting death"})
	obs.HandleEvent(domain.WorkerExited{WorkerID: 1})
	obs.HandleEvent(domain.ReadyToDie{})
	obs.Close()

	assert.Equal(t, []string{"a"}, repo.results)
	assert.Equal(t, []string{"b"}, repo.failures)
	assert.Equal(t, []string{"c:awaiting death"}, repo.unfinished)
}

func TestJobLogObserverSurvivesRepoErrors(t *testing.T) {
	repo := &fakeJobLog{err: errors.New("db down")}
	obs := NewJobLogObserver(repo, logging.NewNopLogger())

	obs.HandleEvent(domain.JobUnfinished{Identifier: taskedJob("x"), Reason: "r"})
	obs.HandleEvent(domain.JobUnfinished{Identifier: taskedJob("y"), Reason: "r"})
	obs.Close()
	obs.Close()

	assert.Len(t, repo.unfinished, 2)
}

func TestDeathWatcher(t *testing.T) {
	w := NewDeathWatcher()
	w.HandleEvent(domain.WorkerExited{WorkerID: 1})

	select {
	case <-w.Ready():
		t.Fatal("ready before ReadyToDie")
	default:
	}

	w.HandleEvent(domain.ReadyToDie{})
	w.HandleEvent(domain.ReadyToDie{})

	select {
	case <-w.Ready():
	case <-time.After(time.Second):
		t.Fatal("not ready after ReadyToDie")
	}
}

func TestLogObserverHandlesEveryEvent(t *testing.T) {
	obs := &LogObserver{Logger: logging.NewNopLogger()}
	events := []domain.Event{
		domain.WorkerExited{WorkerID: 1, Code: 0},
		domain.TaskCompleted{WorkerID: 1},
		domain.TaskFailed{WorkerID: 1},
		domain.JobUnfinished{Reason: "r"},
		domain.ReadyToDie{},
	}
	for _, e := range events {
		require.NotPanics(t, func() { obs.HandleEvent(e) })
	}
}
