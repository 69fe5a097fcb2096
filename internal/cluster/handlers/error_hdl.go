package handlers

import (
	"fmt"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/services/dispatch"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
)

var _ primary.MessageHandler = (*TaskErrorHandler)(nil)

// TaskErrorHandler handles ERROR reports of failed jobs
type TaskErrorHandler struct {
	Dispatcher dispatch.IDispatcher
	Logger     primary.Logger
}

func (h *TaskErrorHandler) HandleMessage(workerID int, msg ipc.Message) error {
	failure, err := msg.Failure()
	if err != nil {
		h.Logger.Error("Failed to parse task failure", "workerId", workerID, "error", err)
		return fmt.Errorf("failed to handle task failure: %w", err)
	}

	h.Dispatcher.OnError(workerID, failure)
	h.Logger.Warn("Task failed", "workerId", workerID, "jobId", failure.TaskedIdentifier.JobID, "stage", failure.Stage, "error", failure.Error)
	return nil
}
