package lifecycle

import (
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/services/forktracker"
)

var _ ILifecycleManager = &Manager{}

// HandleLookup finds the live handle of a worker.
type HandleLookup func(workerID int) (secondary.WorkerHandle, bool)

// TimerSink receives fired timers. The controller forwards them into its
// loop, where they come back through OnTimer.
type TimerSink func(workerID int, kind TimerKind)

type exitState struct {
	retiring      bool
	killRequested bool
	forceTimer    secondary.Timer
	gracefulTimer secondary.Timer
}

// Manager is driven from the controller loop and is not safe for
// concurrent use.
type Manager struct {
	tracker forktracker.IForkTracker
	clock   secondary.Clock
	handles HandleLookup
	timers  TimerSink
	cfg     Config
	states  map[int]*exitState
	logger  primary.Logger
}

func NewManager(
	tracker forktracker.IForkTracker,
	clock secondary.Clock,
	handles HandleLookup,
	timers TimerSink,
	cfg Config,
	logger primary.Logger,
) *Manager {
	return &Manager{
		tracker: tracker,
		clock:   clock,
		handles: handles,
		timers:  timers,
		cfg:     cfg,
		states:  make(map[int]*exitState),
		logger:  logger.With("component", "lifecycle"),
	}
}

func (m *Manager) state(workerID int) *exitState {
	st, ok := m.states[workerID]
	if !ok {
		st = &exitState{}
		m.states[workerID] = st
	}
	return st
}

func (m *Manager) BeginRetiring(workerID int) {
	rec, ok := m.tracker.Get(workerID)
	if !ok {
		return
	}

	st := m.state(workerID)
	if !st.retiring {
		st.retiring = true
		m.logger.Info("Retiring worker", "workerId", workerID, "jobsTaken", rec.JobsTaken, "load", rec.ConcurrentLoad)
	}

	if m.cfg.DoForceKills && st.forceTimer == nil {
		st.forceTimer = m.clock.AfterFunc(m.cfg.TimeoutToForceKill, func() {
			m.timers(workerID, TimerForceKill)
		})
	}

	if rec.ConcurrentLoad == 0 {
		m.requestKill(workerID, st)
	}
}

func (m *Manager) OnDecrement(workerID int) {
	m.BeginRetiring(workerID)
}

func (m *Manager) Drain(workerID int) {
	rec, ok := m.tracker.Get(workerID)
	if !ok || rec.ConcurrentLoad > 0 || len(rec.PendingJobs) > 0 {
		return
	}
	m.requestKill(workerID, m.state(workerID))
}

// requestKill asks the worker to exit gracefully at most once and arms the
// short fallback timer.
func (m *Manager) requestKill(workerID int, st *exitState) {
	if st.killRequested {
		return
	}
	st.killRequested = true

	handle, ok := m.handles(workerID)
	if !ok {
		m.logger.Warn("No handle for worker to kill", "workerId", workerID)
		return
	}

	m.logger.Info("Requesting graceful kill", "workerId", workerID)
	if err := handle.Kill(); err != nil {
		m.logger.Error("Failed to kill worker gracefully", "workerId", workerID, "error", err)
	}

	if m.cfg.DoForceKillsWhenGracefulKillsFail {
		st.gracefulTimer = m.clock.AfterFunc(m.cfg.TimeoutToForceKillWhenGracefulKillFailed, func() {
			m.timers(workerID, TimerGracefulKillFailed)
		})
	}
}

func (m *Manager) OnTimer(workerID int, kind TimerKind) {
	if _, ok := m.states[workerID]; !ok {
		// Worker already reaped.
		return
	}

	handle, ok := m.handles(workerID)
	if !ok || handle.IsDead() {
		return
	}

	m.logger.Warn("Force killing worker", "workerId", workerID, "timer", kind.String())
	if err := handle.ForceKill(); err != nil {
		m.logger.Error("Failed to force kill worker", "workerId", workerID, "error", err)
	}
}

func (m *Manager) OnExit(workerID int) {
	if st, ok := m.states[workerID]; ok {
		if st.forceTimer != nil {
			st.forceTimer.Stop()
		}
		if st.gracefulTimer != nil {
			st.gracefulTimer.Stop()
		}
		delete(m.states, workerID)
	}

	m.tracker.Unregister(workerID)
	m.tracker.ClearRetireCandidate(workerID)

	next := m.tracker.NextOverQuota()
	if next == nil || !m.tracker.Promote(next.WorkerID) {
		return
	}
	m.logger.Info("Promoted over-quota worker to retire candidate", "workerId", next.WorkerID)
	m.BeginRetiring(next.WorkerID)
}

func (m *Manager) IsRetiring(workerID int) bool {
	st, ok := m.states[workerID]
	return ok && st.retiring
}
