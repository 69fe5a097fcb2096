package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/worker"
)

var (
	_ secondary.WorkerSpawner = &Spawner{}
	_ secondary.WorkerHandle  = &handle{}
)

// Spawner starts workers by re-executing a binary with the worker id in its
// environment. IPC runs over the child's stdin and stdout.
type Spawner struct {
	path   string
	args   []string
	env    []string
	stderr io.Writer
	logger primary.Logger

	mu     sync.Mutex
	nextID int
}

// SpawnerOption configures a Spawner
type SpawnerOption func(*Spawner)

// WithCommand replaces the executable and its arguments
func WithCommand(path string, args ...string) SpawnerOption {
	return func(s *Spawner) {
		s.path = path
		s.args = args
	}
}

// WithEnv adds environment entries to every worker
func WithEnv(env ...string) SpawnerOption {
	return func(s *Spawner) {
		s.env = append(s.env, env...)
	}
}

// WithStderr redirects worker stderr, which carries worker logs
func WithStderr(w io.Writer) SpawnerOption {
	return func(s *Spawner) {
		s.stderr = w
	}
}

// NewSpawner re-executes the running binary unless WithCommand says otherwise.
func NewSpawner(logger primary.Logger, opts ...SpawnerOption) (*Spawner, error) {
	s := &Spawner{
		stderr: os.Stderr,
		logger: logger.With("component", "spawner"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable: %w", err)
		}
		s.path = exe
		s.args = os.Args[1:]
	}
	return s, nil
}

func (s *Spawner) Spawn(ctx context.Context, sink secondary.WorkerEventSink) (secondary.WorkerHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to spawn worker: %w", err)
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.mu.Unlock()

	cmd := exec.Command(s.path, s.args...)
	cmd.Env = append(append(os.Environ(), s.env...), worker.EnvWorkerID+"="+strconv.Itoa(id))
	cmd.Stderr = s.stderr
	cmd.SysProcAttr = sysProcAttr()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker %d: %w", id, err)
	}

	h := &handle{
		id:     id,
		cmd:    cmd,
		stdin:  stdin,
		ch:     ipc.NewChannel(stdin),
		logger: s.logger.With("workerId", id, "pid", cmd.Process.Pid),
	}
	go h.watch(stdout, sink)

	h.logger.Debug("Worker process started")
	return h, nil
}

type handle struct {
	id     int
	cmd    *exec.Cmd
	stdin  io.Closer
	ch     *ipc.Channel
	logger primary.Logger

	dead      atomic.Bool
	closeOnce sync.Once
}

func (h *handle) ID() int { return h.id }

func (h *handle) Send(msg ipc.Message) error {
	if h.dead.Load() {
		return fmt.Errorf("failed to send to worker %d: process exited", h.id)
	}
	return h.ch.Send(msg)
}

// Kill closes the IPC pipe and sends SIGTERM. The worker finishes running
// jobs and exits.
func (h *handle) Kill() error {
	h.closeStdin()
	if h.dead.Load() {
		return nil
	}
	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal worker %d: %w", h.id, err)
	}
	return nil
}

// ForceKill sends SIGKILL to the worker's process group.
func (h *handle) ForceKill() error {
	h.closeStdin()
	if h.dead.Load() {
		return nil
	}
	if err := forceKill(h.cmd.Process); err != nil {
		return fmt.Errorf("failed to force kill worker %d: %w", h.id, err)
	}
	return nil
}

func (h *handle) IsDead() bool {
	return h.dead.Load()
}

func (h *handle) closeStdin() {
	h.closeOnce.Do(func() {
		if err := h.stdin.Close(); err != nil {
			h.logger.Debug("Failed to close worker stdin", "error", err)
		}
	})
}

// watch relays worker messages until stdout closes, then reaps the process.
func (h *handle) watch(stdout io.Reader, sink secondary.WorkerEventSink) {
	for {
		msg, err := ipc.ReadMessage(stdout)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.logger.Error("Failed to read from worker", "error", err)
				// Drain so the child never blocks on a full pipe.
				_, _ = io.Copy(io.Discard, stdout)
			}
			break
		}
		sink.WorkerMessage(h.id, msg)
	}

	err := h.cmd.Wait()
	h.dead.Store(true)
	h.closeStdin()

	code, signal := exitStatus(h.cmd.ProcessState)
	if err != nil && h.cmd.ProcessState == nil {
		h.logger.Error("Failed to wait for worker", "error", err)
	}
	sink.WorkerExited(h.id, code, signal)
}
