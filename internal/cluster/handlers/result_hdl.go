package handlers

import (
	"fmt"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/services/dispatch"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
)

var _ primary.MessageHandler = (*TaskResultHandler)(nil)

// TaskResultHandler handles framed responses relayed by a worker
type TaskResultHandler struct {
	Dispatcher dispatch.IDispatcher
	Logger     primary.Logger
}

func (h *TaskResultHandler) HandleMessage(workerID int, msg ipc.Message) error {
	result, err := msg.Result()
	if err != nil {
		h.Logger.Error("Failed to parse task result", "workerId", workerID, "error", err)
		return fmt.Errorf("failed to handle task result: %w", err)
	}

	h.Dispatcher.OnResult(workerID, result)
	h.Logger.Info("Task result received", "workerId", workerID, "jobId", result.TaskedIdentifier.JobID)
	return nil
}
