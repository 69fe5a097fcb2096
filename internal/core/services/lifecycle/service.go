package lifecycle

import "time"

// TimerKind tells which kill timer fired.
type TimerKind int

const (
	// TimerForceKill fires when a retiring worker never exited on its own.
	TimerForceKill TimerKind = iota
	// TimerGracefulKillFailed fires when a worker was told to exit and did not.
	TimerGracefulKillFailed
)

func (k TimerKind) String() string {
	switch k {
	case TimerForceKill:
		return "force-kill"
	case TimerGracefulKillFailed:
		return "graceful-kill-failed"
	default:
		return "unknown"
	}
}

type Config struct {
	DoForceKills       bool
	TimeoutToForceKill time.Duration

	DoForceKillsWhenGracefulKillsFail        bool
	TimeoutToForceKillWhenGracefulKillFailed time.Duration
}

// ILifecycleManager drives workers from retire candidate to reaped.
type ILifecycleManager interface {
	// BeginRetiring arms the kill timers of the retire candidate and asks it
	// to exit if it is idle
	BeginRetiring(workerID int)

	// OnDecrement reacts to a finished job on the retire candidate
	OnDecrement(workerID int)

	// Drain asks a worker with no load and no pending jobs to exit, once
	Drain(workerID int)

	// OnTimer handles a fired kill timer
	OnTimer(workerID int, kind TimerKind)

	// OnExit cleans up after a worker exit and promotes the next over-quota worker
	OnExit(workerID int)

	IsRetiring(workerID int) bool
}
