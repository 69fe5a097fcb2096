package dispatch

import "gitlab.com/fcv-2025.net/jobinitiator/internal/domain"

// Unfinished reasons carried by domain.JobUnfinished.
const (
	ReasonAwaitingDeath = "awaiting death"
	ReasonNoWorker      = "no worker available"
	ReasonSendFailed    = "send to worker failed"
)

// IDispatcher routes jobs to workers and books their acknowledgments.
type IDispatcher interface {
	// RequestJob attaches task to identifier and dispatches it
	RequestJob(identifier domain.ChannelIdentifier, task string) error

	// Submit dispatches an already tasked job
	Submit(job domain.TaskedIdentifier) error

	// Requeue resubmits jobs left on an exited worker
	Requeue(jobs []domain.TaskedIdentifier)

	OnIncrement(workerID int, jobID string)
	OnDecrement(workerID int, jobID string)
	OnResult(workerID int, result domain.TaskResult)
	OnError(workerID int, failure domain.TaskFailure)
}
