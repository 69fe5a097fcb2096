package forktracker

import "gitlab.com/fcv-2025.net/jobinitiator/internal/domain"

// NoCandidate means no worker is marked for retirement.
const NoCandidate = -1

// ForkRecord is the load record of one live worker.
type ForkRecord struct {
	WorkerID int
	// JobsTaken only grows. It is reset by destroying the record.
	JobsTaken      int
	ConcurrentLoad int
	SlotIndex      int
	PendingJobs    []domain.TaskedIdentifier
}

// IForkTracker is the worker table the dispatcher and lifecycle manager share.
type IForkTracker interface {
	// Register creates a zeroed record in the lowest free slot
	Register(workerID int) *ForkRecord

	// Unregister frees the worker's slot and drops its record
	Unregister(workerID int)

	// SelectLeastLoaded picks the worker with the lowest concurrent load,
	// steering around the retire candidate when another worker exists
	SelectLeastLoaded(ignore map[int]struct{}) (*ForkRecord, error)

	// IncrementLoad counts a started job against the worker
	IncrementLoad(workerID int) error

	// DecrementLoad counts a finished job and reports whether the worker is
	// the retire candidate
	DecrementLoad(workerID int) (bool, error)

	RetireCandidate() int
	ClearRetireCandidate(workerID int)
	NextOverQuota() *ForkRecord
	Promote(workerID int) bool

	Get(workerID int) (*ForkRecord, bool)
	Records() []*ForkRecord
	Len() int

	AddPending(workerID int, job domain.TaskedIdentifier) error
	RemovePending(workerID int, jobID string) bool
	Pending(workerID int) []domain.TaskedIdentifier

	Snapshot() []domain.WorkerSnapshot
}
