package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/tcp/jobsocket"
)

// EnvWorkerID marks a process as a worker and carries its id.
const EnvWorkerID = "JOBINITIATOR_WORKER_ID"

// Runtime is the main loop of a worker process. Tasks arrive on in, and
// progress goes out on out.
type Runtime struct {
	id       int
	in       io.Reader
	reporter *ipcReporter
	cfg      jobsocket.Config
	dialer   secondary.Dialer
	logger   primary.Logger
	sessions sync.WaitGroup
}

func NewRuntime(id int, in io.Reader, out io.Writer, cfg jobsocket.Config, dialer secondary.Dialer, logger primary.Logger) *Runtime {
	logger = logger.With("workerId", id)
	return &Runtime{
		id:       id,
		in:       in,
		reporter: &ipcReporter{ch: ipc.NewChannel(out), logger: logger},
		cfg:      cfg,
		dialer:   dialer,
		logger:   logger,
	}
}

type readResult struct {
	msg ipc.Message
	err error
}

// Run accepts tasks until the master closes the pipe or ctx is cancelled,
// then waits for running sessions.
func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("Worker started")

	incoming := make(chan readResult)
	go r.read(ctx, incoming)

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Worker asked to exit")
			break loop
		case res := <-incoming:
			if res.err != nil {
				if !errors.Is(res.err, io.EOF) {
					runErr = fmt.Errorf("failed to read from master: %w", res.err)
					r.logger.Error("Failed to read from master", "error", res.err)
				}
				break loop
			}
			r.handle(ctx, res.msg)
		}
	}

	r.sessions.Wait()
	r.logger.Info("Worker exiting")
	return runErr
}

func (r *Runtime) read(ctx context.Context, out chan<- readResult) {
	for {
		msg, err := ipc.ReadMessage(r.in)
		select {
		case out <- readResult{msg: msg, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

func (r *Runtime) handle(ctx context.Context, msg ipc.Message) {
	if msg.Type != ipc.MsgTask {
		r.logger.Warn("Unexpected message from master", "type", ipc.TypeName(msg.Type))
		return
	}

	job, err := msg.Task()
	if err != nil {
		r.logger.Error("Failed to parse task", "error", err)
		return
	}

	// Running jobs are never cancelled, only the process can be killed.
	sessionCtx := context.WithoutCancel(ctx)
	r.sessions.Add(1)
	go func() {
		defer r.sessions.Done()
		jobsocket.NewSession(job, r.cfg, r.dialer, r.reporter, r.logger).Run(sessionCtx)
	}()
}
