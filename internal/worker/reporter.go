package worker

import (
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/tcp/jobsocket"
)

var _ jobsocket.Reporter = &ipcReporter{}

// ipcReporter forwards session progress to the master.
type ipcReporter struct {
	ch     *ipc.Channel
	logger primary.Logger
}

func (r *ipcReporter) JobStarted(job domain.TaskedIdentifier) {
	r.send(ipc.NewIncrement(job.JobID))
}

func (r *ipcReporter) JobResult(result domain.TaskResult) {
	r.send(ipc.NewResult(result))
}

func (r *ipcReporter) JobFailed(failure domain.TaskFailure) {
	r.send(ipc.NewError(failure))
}

func (r *ipcReporter) JobEnded(job domain.TaskedIdentifier) {
	r.send(ipc.NewDecrement(job.JobID))
}

func (r *ipcReporter) send(msg ipc.Message, err error) {
	if err != nil {
		r.logger.Error("Failed to encode message for master", "error", err)
		return
	}
	if err := r.ch.Send(msg); err != nil {
		r.logger.Error("Failed to send message to master", "type", ipc.TypeName(msg.Type), "error", err)
	}
}
