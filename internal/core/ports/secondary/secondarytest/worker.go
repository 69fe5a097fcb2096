package secondarytest

import (
	"context"
	"errors"
	"sync"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
)

var (
	_ secondary.WorkerHandle  = &FakeHandle{}
	_ secondary.WorkerSpawner = &FakeSpawner{}
)

// ErrSpawnFailed is returned by FakeSpawner when told to fail.
var ErrSpawnFailed = errors.New("spawn failed")

// FakeHandle records everything the master does to a worker.
type FakeHandle struct {
	id int

	mu         sync.Mutex
	sent       []ipc.Message
	kills      int
	forceKills int
	dead       bool
	sendErr    error
}

func NewFakeHandle(id int) *FakeHandle {
	return &FakeHandle{id: id}
}

func (h *FakeHandle) ID() int { return h.id }

func (h *FakeHandle) Send(msg ipc.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sendErr != nil {
		return h.sendErr
	}
	h.sent = append(h.sent, msg)
	return nil
}

func (h *FakeHandle) Kill() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kills++
	return nil
}

func (h *FakeHandle) ForceKill() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forceKills++
	h.dead = true
	return nil
}

func (h *FakeHandle) IsDead() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dead
}

// SetDead marks the process as gone without a force kill.
func (h *FakeHandle) SetDead() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dead = true
}

// FailSends makes every later Send return err.
func (h *FakeHandle) FailSends(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendErr = err
}

func (h *FakeHandle) Sent() []ipc.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ipc.Message, len(h.sent))
	copy(out, h.sent)
	return out
}

func (h *FakeHandle) Kills() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.kills
}

func (h *FakeHandle) ForceKills() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.forceKills
}

// FakeSpawner hands out FakeHandles with ids 1, 2, 3...
type FakeSpawner struct {
	mu      sync.Mutex
	next    int
	fail    bool
	handles []*FakeHandle
	sinks   map[int]secondary.WorkerEventSink
}

func NewFakeSpawner() *FakeSpawner {
	return &FakeSpawner{sinks: make(map[int]secondary.WorkerEventSink)}
}

func (s *FakeSpawner) Spawn(ctx context.Context, sink secondary.WorkerEventSink) (secondary.WorkerHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return nil, ErrSpawnFailed
	}
	s.next++
	h := NewFakeHandle(s.next)
	s.handles = append(s.handles, h)
	s.sinks[h.id] = sink
	return h, nil
}

// FailSpawns makes later Spawn calls fail.
func (s *FakeSpawner) FailSpawns(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// Handles returns every handle spawned so far in spawn order.
func (s *FakeSpawner) Handles() []*FakeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*FakeHandle, len(s.handles))
	copy(out, s.handles)
	return out
}

// Handle returns the handle with the given id, or nil.
func (s *FakeSpawner) Handle(id int) *FakeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.handles {
		if h.id == id {
			return h
		}
	}
	return nil
}

// Message delivers msg as if worker id had sent it.
func (s *FakeSpawner) Message(id int, msg ipc.Message) {
	s.mu.Lock()
	sink := s.sinks[id]
	s.mu.Unlock()
	if sink != nil {
		sink.WorkerMessage(id, msg)
	}
}

// Exit reports worker id as exited and marks its handle dead.
func (s *FakeSpawner) Exit(id int, code int, signal string) {
	s.mu.Lock()
	sink := s.sinks[id]
	s.mu.Unlock()
	if h := s.Handle(id); h != nil {
		h.SetDead()
	}
	if sink != nil {
		sink.WorkerExited(id, code, signal)
	}
}
