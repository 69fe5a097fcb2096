package secondary

import (
	"context"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
)

// WorkerHandle is the master's grip on one spawned worker process.
type WorkerHandle interface {
	ID() int

	// Send delivers a message to the worker.
	Send(msg ipc.Message) error

	// Kill asks the worker to exit once it is idle.
	Kill() error

	// ForceKill terminates the worker process outright.
	ForceKill() error

	IsDead() bool
}

// WorkerEventSink receives what a worker says and when it dies. Spawners
// call it from their own goroutines.
type WorkerEventSink interface {
	WorkerMessage(workerID int, msg ipc.Message)
	WorkerExited(workerID int, code int, signal string)
}

// WorkerSpawner starts worker processes.
type WorkerSpawner interface {
	Spawn(ctx context.Context, sink WorkerEventSink) (WorkerHandle, error)
}
