package dispatch

import (
	"fmt"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/services/forktracker"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/services/lifecycle"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/static/errs"
)

var _ IDispatcher = &Dispatcher{}

// Dispatcher is driven from the controller loop and is not safe for
// concurrent use.
type Dispatcher struct {
	tracker       forktracker.IForkTracker
	lifecycle     lifecycle.ILifecycleManager
	handles       lifecycle.HandleLookup
	awaitingDeath func() bool
	emit          func(domain.Event)
	logger        primary.Logger
}

func NewDispatcher(
	tracker forktracker.IForkTracker,
	lc lifecycle.ILifecycleManager,
	handles lifecycle.HandleLookup,
	awaitingDeath func() bool,
	emit func(domain.Event),
	logger primary.Logger,
) *Dispatcher {
	return &Dispatcher{
		tracker:       tracker,
		lifecycle:     lc,
		handles:       handles,
		awaitingDeath: awaitingDeath,
		emit:          emit,
		logger:        logger.With("component", "dispatcher"),
	}
}

func (d *Dispatcher) RequestJob(identifier domain.ChannelIdentifier, task string) error {
	return d.Submit(identifier.WithTask(task))
}

// Submit never drops a job. Anything it cannot hand to a worker is emitted
// as JobUnfinished. Dispatch during shutdown is not an error.
func (d *Dispatcher) Submit(job domain.TaskedIdentifier) error {
	if d.awaitingDeath() {
		d.logger.Info("Awaiting death, job not dispatched", "jobId", job.JobID)
		d.unfinished(job, ReasonAwaitingDeath)
		return nil
	}

	rec, err := d.tracker.SelectLeastLoaded(nil)
	if err != nil {
		d.unfinished(job, ReasonNoWorker)
		return fmt.Errorf("failed to select worker for job %s: %w", job.JobID, err)
	}

	handle, ok := d.handles(rec.WorkerID)
	if !ok {
		d.unfinished(job, ReasonNoWorker)
		return fmt.Errorf("failed to find handle of worker %d for job %s: %w", rec.WorkerID, job.JobID, errs.ErrNoWorkerAvailable)
	}

	msg, err := ipc.NewTask(job)
	if err != nil {
		d.unfinished(job, ReasonSendFailed)
		return fmt.Errorf("failed to encode job %s: %w", job.JobID, err)
	}

	if err := d.tracker.AddPending(rec.WorkerID, job); err != nil {
		d.unfinished(job, ReasonNoWorker)
		return err
	}

	if err := handle.Send(msg); err != nil {
		d.tracker.RemovePending(rec.WorkerID, job.JobID)
		d.unfinished(job, ReasonSendFailed)
		return fmt.Errorf("failed to send job %s to worker %d: %w", job.JobID, rec.WorkerID, err)
	}

	d.logger.Debug("Dispatched job", "jobId", job.JobID, "workerId", rec.WorkerID, "load", rec.ConcurrentLoad)
	return nil
}

func (d *Dispatcher) Requeue(jobs []domain.TaskedIdentifier) {
	for _, job := range jobs {
		d.logger.Info("Requeueing job", "jobId", job.JobID)
		if err := d.Submit(job); err != nil {
			d.logger.Error("Failed to requeue job", "jobId", job.JobID, "error", err)
		}
	}
}

func (d *Dispatcher) OnIncrement(workerID int, jobID string) {
	if err := d.tracker.IncrementLoad(workerID); err != nil {
		d.logger.Warn("Increment from untracked worker", "workerId", workerID, "jobId", jobID, "error", err)
	}
}

// OnDecrement is the completion acknowledgment of a job.
func (d *Dispatcher) OnDecrement(workerID int, jobID string) {
	if jobID != "" && !d.tracker.RemovePending(workerID, jobID) {
		d.logger.Debug("Acknowledged job was not pending", "workerId", workerID, "jobId", jobID)
	}

	retiring, err := d.tracker.DecrementLoad(workerID)
	if err != nil {
		d.logger.Warn("Decrement from untracked worker", "workerId", workerID, "jobId", jobID, "error", err)
		return
	}

	switch {
	case retiring:
		d.lifecycle.OnDecrement(workerID)
	case d.awaitingDeath():
		d.lifecycle.Drain(workerID)
	}
}

func (d *Dispatcher) OnResult(workerID int, result domain.TaskResult) {
	d.emit(domain.TaskCompleted{WorkerID: workerID, Result: result})
}

// OnError reports a failed job. A connect failure is never followed by a
// decrement, so the pending entry is dropped here.
func (d *Dispatcher) OnError(workerID int, failure domain.TaskFailure) {
	if failure.Stage == domain.StageConnect {
		d.tracker.RemovePending(workerID, failure.TaskedIdentifier.JobID)
		if d.awaitingDeath() {
			d.lifecycle.Drain(workerID)
		}
	}
	d.emit(domain.TaskFailed{WorkerID: workerID, Failure: failure})
}

func (d *Dispatcher) unfinished(job domain.TaskedIdentifier, reason string) {
	d.emit(domain.JobUnfinished{Identifier: job, Reason: reason})
}
