package domain

// Event is the closed set of notifications the cluster emits.
// Only types in this package implement it.
type Event interface {
	eventName() string
}

// EventName returns the stable name of an event, used for logging.
func EventName(e Event) string {
	return e.eventName()
}

// WorkerExited fires for every worker exit, whatever the cause.
type WorkerExited struct {
	WorkerID int
	Code     int
	Signal   string
}

// TaskCompleted fires for each framed response a worker relays.
type TaskCompleted struct {
	WorkerID int
	Result   TaskResult
}

// TaskFailed fires when a worker reports a failed job.
type TaskFailed struct {
	WorkerID int
	Failure  TaskFailure
}

// JobUnfinished fires when a job could not be handed to any worker.
type JobUnfinished struct {
	Identifier TaskedIdentifier
	Reason     string
}

// ReadyToDie fires once when the cluster is awaiting death and no workers are left.
type ReadyToDie struct{}

func (WorkerExited) eventName() string  { return "worker-exit" }
func (TaskCompleted) eventName() string { return "task-complete" }
func (TaskFailed) eventName() string    { return "worker-error" }
func (JobUnfinished) eventName() string { return "unfinished-job" }
func (ReadyToDie) eventName() string    { return "ready-to-die" }
