package cluster

import (
	"context"
	"sync"
	"time"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
)

var (
	_ primary.EventObserver = &LogObserver{}
	_ primary.EventObserver = &JobLogObserver{}
	_ primary.EventObserver = &DeathWatcher{}
)

// LogObserver writes every event to the log.
type LogObserver struct {
	Logger primary.Logger
}

func (o *LogObserver) HandleEvent(event domain.Event) {
	name := domain.EventName(event)
	switch e := event.(type) {
	case domain.WorkerExited:
		o.Logger.Info("Cluster event", "event", name, "workerId", e.WorkerID, "code", e.Code, "signal", e.Signal)
	case domain.TaskCompleted:
		o.Logger.Info("Cluster event", "event", name, "workerId", e.WorkerID, "jobId", e.Result.TaskedIdentifier.JobID)
	case domain.TaskFailed:
		o.Logger.Warn("Cluster event", "event", name, "workerId", e.WorkerID, "jobId", e.Failure.TaskedIdentifier.JobID, "stage", e.Failure.Stage, "error", e.Failure.Error)
	case domain.JobUnfinished:
		o.Logger.Warn("Cluster event", "event", name, "jobId", e.Identifier.JobID, "task", e.Identifier.Task, "reason", e.Reason)
	case domain.ReadyToDie:
		o.Logger.Info("Cluster event", "event", name)
	}
}

const (
	defaultJobLogQueue = 1024
	jobLogWriteTimeout = 5 * time.Second
)

// JobLogObserver records job outcomes in a JobLogRepository from its own
// goroutine. Events that do not fit in the queue are dropped and logged.
type JobLogObserver struct {
	repo   secondary.JobLogRepository
	logger primary.Logger
	queue  chan domain.Event

	closeOnce sync.Once
	done      chan struct{}
}

func NewJobLogObserver(repo secondary.JobLogRepository, logger primary.Logger) *JobLogObserver {
	o := &JobLogObserver{
		repo:   repo,
		logger: logger.With("component", "joblog"),
		queue:  make(chan domain.Event, defaultJobLogQueue),
		done:   make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *JobLogObserver) HandleEvent(event domain.Event) {
	switch event.(type) {
	case domain.TaskCompleted, domain.TaskFailed, domain.JobUnfinished:
	default:
		return
	}

	select {
	case o.queue <- event:
	default:
		o.logger.Warn("Job log queue full, event dropped", "event", domain.EventName(event))
	}
}

// Close waits until the queue is written out. Call it only after the
// controller has stopped emitting.
func (o *JobLogObserver) Close() {
	o.closeOnce.Do(func() { close(o.queue) })
	<-o.done
}

func (o *JobLogObserver) loop() {
	defer close(o.done)
	for event := range o.queue {
		if err := o.write(event); err != nil {
			o.logger.Error("Failed to record job event", "event", domain.EventName(event), "error", err)
		}
	}
}

func (o *JobLogObserver) write(event domain.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobLogWriteTimeout)
	defer cancel()

	switch e := event.(type) {
	case domain.TaskCompleted:
		return o.repo.SaveTaskResult(ctx, e.WorkerID, e.Result)
	case domain.TaskFailed:
		return o.repo.SaveTaskFailure(ctx, e.WorkerID, e.Failure)
	case domain.JobUnfinished:
		return o.repo.SaveUnfinishedJob(ctx, e.Identifier, e.Reason)
	}
	return nil
}

// DeathWatcher closes its channel on the first ReadyToDie.
type DeathWatcher struct {
	once  sync.Once
	ready chan struct{}
}

func NewDeathWatcher() *DeathWatcher {
	return &DeathWatcher{ready: make(chan struct{})}
}

func (w *DeathWatcher) HandleEvent(event domain.Event) {
	if _, ok := event.(domain.ReadyToDie); ok {
		w.once.Do(func() { close(w.ready) })
	}
}

// Ready is closed once the cluster is ready to die.
func (w *DeathWatcher) Ready() <-chan struct{} {
	return w.ready
}
