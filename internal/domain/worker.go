package domain

// WorkerSnapshot is a point-in-time copy of a tracked worker, safe to hand
// out of the controller loop.
type WorkerSnapshot struct {
	WorkerID        int    `json:"workerId"`
	SlotIndex       int    `json:"slotIndex"`
	JobsTaken       int    `json:"jobsTaken"`
	ConcurrentLoad  int    `json:"concurrentLoad"`
	PendingJobs     int    `json:"pendingJobs"`
	RetireCandidate bool   `json:"retireCandidate"`
	State           string `json:"state"`
}

// WorkerState names the lifecycle state of a worker.
type WorkerState string

const (
	WorkerActive          WorkerState = "ACTIVE"
	WorkerRetireCandidate WorkerState = "RETIRE_CANDIDATE"
	WorkerRetiring        WorkerState = "RETIRING"
)
