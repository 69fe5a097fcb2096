package forktracker

import (
	"fmt"
	"sort"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/services/selector"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/static/errs"
)

var _ IForkTracker = &Tracker{}

// Tracker is not safe for concurrent use. The cluster controller owns it
// from a single goroutine.
type Tracker struct {
	quota     int
	slots     slotAllocator
	byWorker  map[int]*ForkRecord
	bySlot    map[int]*ForkRecord
	candidate int
	logger    primary.Logger
}

// NewTracker creates an empty worker table. A worker becomes the retire
// candidate once it has taken quota jobs.
func NewTracker(quota int, logger primary.Logger) *Tracker {
	return &Tracker{
		quota:     quota,
		byWorker:  make(map[int]*ForkRecord),
		bySlot:    make(map[int]*ForkRecord),
		candidate: NoCandidate,
		logger:    logger.With("component", "forktracker"),
	}
}

func (t *Tracker) Register(workerID int) *ForkRecord {
	if rec, ok := t.byWorker[workerID]; ok {
		return rec
	}

	slot := t.slots.Acquire()
	rec := &ForkRecord{WorkerID: workerID, SlotIndex: slot}
	t.byWorker[workerID] = rec
	t.bySlot[slot] = rec

	t.logger.Debug("Registered worker", "workerId", workerID, "slot", slot)
	return rec
}

func (t *Tracker) Unregister(workerID int) {
	rec, ok := t.byWorker[workerID]
	if !ok {
		return
	}
	delete(t.byWorker, workerID)
	delete(t.bySlot, rec.SlotIndex)
	t.slots.Release(rec.SlotIndex)

	t.logger.Debug("Unregistered worker", "workerId", workerID, "slot", rec.SlotIndex)
}

// loads renders the slot array for the selector. Free slots are nil.
func (t *Tracker) loads() []*int {
	out := make([]*int, t.slots.Len())
	for slot, rec := range t.bySlot {
		load := rec.ConcurrentLoad
		out[slot] = &load
	}
	return out
}

func (t *Tracker) SelectLeastLoaded(ignore map[int]struct{}) (*ForkRecord, error) {
	if len(t.byWorker) == 0 {
		return nil, errs.ErrNoWorkerAvailable
	}

	exclude := make(map[int]struct{}, len(ignore)+1)
	for slot := range ignore {
		exclude[slot] = struct{}{}
	}

	loads := t.loads()
	idx := selector.MinIndex(loads, exclude)
	if idx == selector.NotFound {
		return nil, errs.ErrNoWorkerAvailable
	}

	first := t.bySlot[idx]
	if first.WorkerID != t.candidate {
		return first, nil
	}

	// Steer around the retire candidate. Fall back to it when nothing else
	// is eligible.
	for attempts := 0; attempts < len(t.byWorker); attempts++ {
		exclude[idx] = struct{}{}
		idx = selector.MinIndex(loads, exclude)
		if idx == selector.NotFound {
			break
		}
		if rec := t.bySlot[idx]; rec.WorkerID != t.candidate {
			return rec, nil
		}
	}

	t.logger.Debug("Falling back to retire candidate", "workerId", first.WorkerID)
	return first, nil
}

func (t *Tracker) IncrementLoad(workerID int) error {
	rec, ok := t.byWorker[workerID]
	if !ok {
		return fmt.Errorf("failed to increment load of worker %d: %w", workerID, errs.ErrWorkerNotFound)
	}

	rec.ConcurrentLoad++
	rec.JobsTaken++

	if rec.JobsTaken >= t.quota && t.candidate == NoCandidate {
		t.candidate = workerID
		t.logger.Info("Worker reached job quota", "workerId", workerID, "jobsTaken", rec.JobsTaken, "quota", t.quota)
	}
	return nil
}

func (t *Tracker) DecrementLoad(workerID int) (bool, error) {
	rec, ok := t.byWorker[workerID]
	if !ok {
		return false, fmt.Errorf("failed to decrement load of worker %d: %w", workerID, errs.ErrWorkerNotFound)
	}

	if rec.ConcurrentLoad == 0 {
		t.logger.Warn("Load decrement on idle worker", "workerId", workerID)
	} else {
		rec.ConcurrentLoad--
	}
	return workerID == t.candidate, nil
}

func (t *Tracker) RetireCandidate() int {
	return t.candidate
}

// ClearRetireCandidate clears the candidate only if it is workerID.
func (t *Tracker) ClearRetireCandidate(workerID int) {
	if t.candidate == workerID {
		t.candidate = NoCandidate
	}
}

// NextOverQuota returns the first record by slot order that has reached the
// quota and is not the current candidate, or nil.
func (t *Tracker) NextOverQuota() *ForkRecord {
	for _, rec := range t.Records() {
		if rec.WorkerID != t.candidate && rec.JobsTaken >= t.quota {
			return rec
		}
	}
	return nil
}

// Promote makes workerID the retire candidate if none is set.
func (t *Tracker) Promote(workerID int) bool {
	if t.candidate != NoCandidate {
		return false
	}
	if _, ok := t.byWorker[workerID]; !ok {
		return false
	}
	t.candidate = workerID
	return true
}

func (t *Tracker) Get(workerID int) (*ForkRecord, bool) {
	rec, ok := t.byWorker[workerID]
	return rec, ok
}

// Records returns live records ordered by slot.
func (t *Tracker) Records() []*ForkRecord {
	out := make([]*ForkRecord, 0, len(t.bySlot))
	for _, rec := range t.bySlot {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotIndex < out[j].SlotIndex })
	return out
}

func (t *Tracker) Len() int {
	return len(t.byWorker)
}

func (t *Tracker) AddPending(workerID int, job domain.TaskedIdentifier) error {
	rec, ok := t.byWorker[workerID]
	if !ok {
		return fmt.Errorf("failed to add pending job %s: %w", job.JobID, errs.ErrWorkerNotFound)
	}
	rec.PendingJobs = append(rec.PendingJobs, job)
	return nil
}

// RemovePending drops the oldest pending entry with jobID.
func (t *Tracker) RemovePending(workerID int, jobID string) bool {
	rec, ok := t.byWorker[workerID]
	if !ok {
		return false
	}
	for i, job := range rec.PendingJobs {
		if job.JobID == jobID {
			rec.PendingJobs = append(rec.PendingJobs[:i], rec.PendingJobs[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns a copy of the worker's unacknowledged jobs in dispatch order.
func (t *Tracker) Pending(workerID int) []domain.TaskedIdentifier {
	rec, ok := t.byWorker[workerID]
	if !ok || len(rec.PendingJobs) == 0 {
		return nil
	}
	out := make([]domain.TaskedIdentifier, len(rec.PendingJobs))
	copy(out, rec.PendingJobs)
	return out
}

func (t *Tracker) Snapshot() []domain.WorkerSnapshot {
	records := t.Records()
	out := make([]domain.WorkerSnapshot, 0, len(records))
	for _, rec := range records {
		state := domain.WorkerActive
		if rec.WorkerID == t.candidate {
			state = domain.WorkerRetireCandidate
		}
		out = append(out, domain.WorkerSnapshot{
			WorkerID:        rec.WorkerID,
			SlotIndex:       rec.SlotIndex,
			JobsTaken:       rec.JobsTaken,
			ConcurrentLoad:  rec.ConcurrentLoad,
			PendingJobs:     len(rec.PendingJobs),
			RetireCandidate: rec.WorkerID == t.candidate,
			State:           string(state),
		})
	}
	return out
}
