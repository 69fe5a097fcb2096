package handlers

import (
	"fmt"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/services/dispatch"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
)

var (
	_ primary.MessageHandler = (*IncrementHandler)(nil)
	_ primary.MessageHandler = (*DecrementHandler)(nil)
)

// IncrementHandler handles incrementRequests: a worker connected to a job acceptor
type IncrementHandler struct {
	Dispatcher dispatch.IDispatcher
	Logger     primary.Logger
}

func (h *IncrementHandler) HandleMessage(workerID int, msg ipc.Message) error {
	ref, err := msg.JobRef()
	if err != nil {
		h.Logger.Error("Failed to parse increment", "workerId", workerID, "error", err)
		return fmt.Errorf("failed to handle increment: %w", err)
	}

	h.Dispatcher.OnIncrement(workerID, ref.JobID)
	h.Logger.Debug("Job started", "workerId", workerID, "jobId", ref.JobID)
	return nil
}

// DecrementHandler handles decrementRequests: a job stream ended
type DecrementHandler struct {
	Dispatcher dispatch.IDispatcher
	Logger     primary.Logger
}

func (h *DecrementHandler) HandleMessage(workerID int, msg ipc.Message) error {
	ref, err := msg.JobRef()
	if err != nil {
		h.Logger.Error("Failed to parse decrement", "workerId", workerID, "error", err)
		return fmt.Errorf("failed to handle decrement: %w", err)
	}

	h.Dispatcher.OnDecrement(workerID, ref.JobID)
	h.Logger.Debug("Job ended", "workerId", workerID, "jobId", ref.JobID)
	return nil
}
