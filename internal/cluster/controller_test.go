package cluster

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/adapter/logging"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/config"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary/secondarytest"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/services/dispatch"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/static/errs"
)

type eventLog struct {
	mu     sync.Mutex
	events []domain.Event
}

func (l *eventLog) HandleEvent(e domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) all() []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Event, len(l.events))
	copy(out, l.events)
	return out
}

func (l *eventLog) count(name string) int {
	n := 0
	for _, e := range l.all() {
		if domain.EventName(e) == name {
			n++
		}
	}
	return n
}

type harness struct {
	ctl     *Controller
	spawner *secondarytest.FakeSpawner
	clock   *secondarytest.ManualClock
	events  *eventLog
	ctx     context.Context
}

func testConfig(forks, quota int) *config.ClusterConfig {
	return &config.ClusterConfig{
		TotalForks:                               forks,
		JobAcceptorPort:                          4212,
		JobsUntilDeath:                           quota,
		DoForceKills:                             true,
		TimeoutToForceKill:                       3 * time.Hour,
		DoForceKillsWhenGracefulKillsFail:        true,
		TimeoutToForceKillWhenGracefulKillFailed: 10 * time.Second,
		RespawnOnExit:                            true,
	}
}

func newHarness(t *testing.T, cfg *config.ClusterConfig) *harness {
	t.Helper()

	h := &harness{
		spawner: secondarytest.NewFakeSpawner(),
		clock:   secondarytest.NewManualClock(),
		events:  &eventLog{},
	}
	h.ctl = NewController(cfg, h.spawner, logging.NewNopLogger(), WithClock(h.clock), WithObservers(h.events))

	ctx, cancel := context.WithCancel(context.Background())
	h.ctx = ctx
	go func() { _ = h.ctl.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.ctl.Done()
	})
	return h
}

// sync waits until every operation posted so far has run.
func (h *harness) sync(t *testing.T) {
	t.Helper()
	_, err := h.ctl.AwaitingDeath(h.ctx)
	require.NoError(t, err)
}

func (h *harness) started(t *testing.T, id int, jobID string) {
	t.Helper()
	msg, err := ipc.NewIncrement(jobID)
	require.NoError(t, err)
	h.spawner.Message(id, msg)
}

func (h *harness) ended(t *testing.T, id int, jobID string) {
	t.Helper()
	msg, err := ipc.NewDecrement(jobID)
	require.NoError(t, err)
	h.spawner.Message(id, msg)
}

func (h *harness) request(t *testing.T, jobID string) {
	t.Helper()
	require.NoError(t, h.ctl.RequestJob(h.ctx, domain.ChannelIdentifier{JobID: jobID, TargetIP: "127.0.0.1"}, "task-"+jobID))
}

func sentIDs(t *testing.T, handle *secondarytest.FakeHandle) []string {
	t.Helper()
	var ids []string
	for _, msg := range handle.Sent() {
		job, err := msg.Task()
		require.NoError(t, err)
		ids = append(ids, job.JobID)
	}
	return ids
}

func TestStartSpawnsWorkersOnce(t *testing.T) {
	h := newHarness(t, testConfig(3, 10))

	require.NoError(t, h.ctl.Start(h.ctx))
	assert.Len(t, h.spawner.Handles(), 3)
	assert.ErrorIs(t, h.ctl.Start(h.ctx), errs.ErrAlreadyStarted)

	snaps, err := h.ctl.Snapshot(h.ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	for i, s := range snaps {
		assert.Equal(t, i+1, s.WorkerID)
		assert.Equal(t, i, s.SlotIndex)
		assert.Equal(t, string(domain.WorkerActive), s.State)
	}
}

func TestStartReportsSpawnFailure(t *testing.T) {
	h := newHarness(t, testConfig(2, 10))
	h.spawner.FailSpawns(true)

	err := h.ctl.Start(h.ctx)
	assert.ErrorIs(t, err, secondarytest.ErrSpawnFailed)
}

func TestRequestJobBalancesLoad(t *testing.T) {
	h := newHarness(t, testConfig(2, 10))
	require.NoError(t, h.ctl.Start(h.ctx))

	h.request(t, "j1")
	h.started(t, 1, "j1")
	h.request(t, "j2")
	h.started(t, 2, "j2")
	h.request(t, "j3")

	assert.Equal(t, []string{"j1", "j3"}, sentIDs(t, h.spawner.Handle(1)))
	assert.Equal(t, []string{"j2"}, sentIDs(t, h.spawner.Handle(2)))

	snaps, err := h.ctl.Snapshot(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snaps[0].PendingJobs)
	assert.Equal(t, 1, snaps[0].ConcurrentLoad)
}

func TestRequestJobWithoutWorkers(t *testing.T) {
	h := newHarness(t, testConfig(1, 10))

	err := h.ctl.RequestJob(h.ctx, domain.ChannelIdentifier{JobID: "j1"}, "t")
	assert.ErrorIs(t, err, errs.ErrNoWorkerAvailable)
	assert.Equal(t, 1, h.events.count("unfinished-job"))
}

func TestRetireAndRespawn(t *testing.T) {
	h := newHarness(t, testConfig(2, 1))
	require.NoError(t, h.ctl.Start(h.ctx))

	h.request(t, "j1")
	h.started(t, 1, "j1")
	h.ended(t, 1, "j1")
	h.sync(t)

	w1 := h.spawner.Handle(1)
	assert.Equal(t, 1, w1.Kills())

	snaps, err := h.ctl.Snapshot(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, string(domain.WorkerRetiring), snaps[0].State)
	assert.True(t, snaps[0].RetireCandidate)

	h.request(t, "j2")
	assert.Equal(t, []string{"j2"}, sentIDs(t, h.spawner.Handle(2)))

	h.spawner.Exit(1, 0, "")
	h.sync(t)

	assert.Len(t, h.spawner.Handles(), 3, "replacement spawned")
	snaps, err = h.ctl.Snapshot(h.ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 3, snaps[0].WorkerID, "replacement reuses the freed slot")
	assert.Equal(t, 0, snaps[0].SlotIndex)

	events := h.events.all()
	require.NotEmpty(t, events)
	assert.Equal(t, domain.WorkerExited{WorkerID: 1, Code: 0}, events[len(events)-1])
}

func TestGracefulKillTimeoutForceKills(t *testing.T) {
	h := newHarness(t, testConfig(1, 1))
	require.NoError(t, h.ctl.Start(h.ctx))

	h.request(t, "j1")
	h.started(t, 1, "j1")
	h.ended(t, 1, "j1")
	h.sync(t)

	h.clock.Advance(10 * time.Second)
	h.sync(t)
	assert.Equal(t, 1, h.spawner.Handle(1).ForceKills())

	h.spawner.Exit(1, -1, "SIGKILL")
	h.sync(t)
	assert.Equal(t, 0, h.clock.Pending(), "timers of the dead worker stopped")
}

func TestCrashRequeuesPendingJobs(t *testing.T) {
	h := newHarness(t, testConfig(1, 10))
	require.NoError(t, h.ctl.Start(h.ctx))

	h.request(t, "j1")
	h.request(t, "j2")
	h.started(t, 1, "j1")

	h.spawner.Exit(1, 1, "")
	h.sync(t)

	replacement := h.spawner.Handle(2)
	require.NotNil(t, replacement)
	assert.Equal(t, []string{"j1", "j2"}, sentIDs(t, replacement))
	assert.Equal(t, 0, h.events.count("unfinished-job"))
}

func TestCrashWithoutRespawnReportsUnfinished(t *testing.T) {
	cfg := testConfig(1, 10)
	cfg.RespawnOnExit = false
	h := newHarness(t, cfg)
	require.NoError(t, h.ctl.Start(h.ctx))

	h.request(t, "j1")
	h.spawner.Exit(1, 1, "")
	h.sync(t)

	var unfinished []domain.JobUnfinished
	for _, e := range h.events.all() {
		if u, ok := e.(domain.JobUnfinished); ok {
			unfinished = append(unfinished, u)
		}
	}
	require.Len(t, unfinished, 1)
	assert.Equal(t, "j1", unfinished[0].Identifier.JobID)
	assert.Equal(t, dispatch.ReasonNoWorker, unfinished[0].Reason)
}

func TestDieDrainsAndFiresReadyToDieOnce(t *testing.T) {
	h := newHarness(t, testConfig(2, 10))
	require.NoError(t, h.ctl.Start(h.ctx))

	h.request(t, "j1")
	h.started(t, 1, "j1")
	require.NoError(t, h.ctl.Die(h.ctx))

	w1, w2 := h.spawner.Handle(1), h.spawner.Handle(2)
	assert.Equal(t, 0, w1.Kills(), "busy worker keeps running")
	assert.Equal(t, 1, w2.Kills(), "idle worker told to exit")

	dying, err := h.ctl.AwaitingDeath(h.ctx)
	require.NoError(t, err)
	assert.True(t, dying)

	// Jobs requested while dying are reported, not sent.
	h.request(t, "late")
	assert.Equal(t, []string{"j1"}, sentIDs(t, w1))
	assert.Empty(t, sentIDs(t, w2))
	assert.Equal(t, 1, h.events.count("unfinished-job"))

	h.spawner.Exit(2, 0, "")
	h.sync(t)
	assert.Len(t, h.spawner.Handles(), 2, "no respawn while awaiting death")
	assert.Equal(t, 0, h.events.count("ready-to-die"))

	h.ended(t, 1, "j1")
	h.sync(t)
	assert.Equal(t, 1, w1.Kills())

	h.spawner.Exit(1, 0, "")
	require.NoError(t, h.ctl.Die(h.ctx))
	assert.Equal(t, 1, h.events.count("ready-to-die"))
}

func TestDieWithEmptyPool(t *testing.T) {
	h := newHarness(t, testConfig(2, 10))
	require.NoError(t, h.ctl.Die(h.ctx))
	assert.Equal(t, 1, h.events.count("ready-to-die"))
}

func TestUndieRefillsPool(t *testing.T) {
	h := newHarness(t, testConfig(2, 10))
	require.NoError(t, h.ctl.Start(h.ctx))
	require.NoError(t, h.ctl.Die(h.ctx))
	h.spawner.Exit(1, 0, "")
	h.spawner.Exit(2, 0, "")
	h.sync(t)
	require.Equal(t, 1, h.events.count("ready-to-die"))

	require.NoError(t, h.ctl.Undie(h.ctx))
	dying, err := h.ctl.AwaitingDeath(h.ctx)
	require.NoError(t, err)
	assert.False(t, dying)

	snaps, err := h.ctl.Snapshot(h.ctx)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)

	h.request(t, "j1")
	assert.Equal(t, []string{"j1"}, sentIDs(t, h.spawner.Handle(3)))

	require.NoError(t, h.ctl.Die(h.ctx))
	h.spawner.Exit(3, 0, "")
	h.spawner.Exit(4, 0, "")
	h.sync(t)
	assert.Equal(t, 2, h.events.count("ready-to-die"), "undie re-arms the signal")
}

func TestMessagesFromWorkersAreRelayed(t *testing.T) {
	h := newHarness(t, testConfig(1, 10))
	require.NoError(t, h.ctl.Start(h.ctx))
	h.request(t, "j1")

	job := domain.ChannelIdentifier{JobID: "j1", TargetIP: "127.0.0.1"}.WithTask("task-j1")
	result, err := ipc.NewResult(domain.TaskResult{TaskedIdentifier: job, Data: []byte(`{"ok":true}`)})
	require.NoError(t, err)
	h.spawner.Message(1, result)
	h.spawner.Message(1, ipc.Message{Type: 0x7f})
	h.sync(t)

	require.Equal(t, 1, h.events.count("task-complete"))
	completed := h.events.all()[0].(domain.TaskCompleted)
	assert.Equal(t, 1, completed.WorkerID)
	assert.JSONEq(t, `{"ok":true}`, string(completed.Result.Data))
}

func TestStoppedController(t *testing.T) {
	ctl := NewController(testConfig(1, 1), secondarytest.NewFakeSpawner(), logging.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = ctl.Run(ctx) }()
	cancel()
	<-ctl.Done()

	assert.ErrorIs(t, ctl.Die(context.Background()), errs.ErrControllerStopped)
	assert.ErrorIs(t, ctl.Run(context.Background()), errs.ErrAlreadyStarted)
}

func TestCrashDuringDieReportsJobsBeforeReadyToDie(t *testing.T) {
	h := newHarness(t, testConfig(1, 10))
	require.NoError(t, h.ctl.Start(h.ctx))

	h.request(t, "j1")
	h.started(t, 1, "j1")
	require.NoError(t, h.ctl.Die(h.ctx))

	h.spawner.Exit(1, 1, "")
	h.sync(t)

	var names []string
	for _, e := range h.events.all() {
		names = append(names, domain.EventName(e))
	}
	assert.Equal(t, []string{"worker-exit", "unfinished-job", "ready-to-die"}, names)
}

func TestRespawnFailureKeepsControllerRunning(t *testing.T) {
	h := newHarness(t, testConfig(1, 10))
	require.NoError(t, h.ctl.Start(h.ctx))

	h.request(t, "j1")
	h.spawner.FailSpawns(true)
	h.spawner.Exit(1, 1, "")
	h.sync(t)

	snaps, err := h.ctl.Snapshot(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, snaps)
	assert.Equal(t, 1, h.events.count("unfinished-job"))
}
