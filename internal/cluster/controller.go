package cluster

import (
	"context"
	"fmt"
	"sync"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/cluster/handlers"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/config"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/services/dispatch"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/services/forktracker"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/services/lifecycle"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/static/errs"
)

const opQueueSize = 256

var (
	_ primary.JobInitiator      = &Controller{}
	_ secondary.WorkerEventSink = &Controller{}
)

// Controller owns every piece of master state. All of it is touched only
// by the goroutine running Run; public methods post closures into it.
type Controller struct {
	cfg     *config.ClusterConfig
	spawner secondary.WorkerSpawner
	clock   secondary.Clock
	logger  primary.Logger

	observers []primary.EventObserver

	tracker    *forktracker.Tracker
	lifecycle  *lifecycle.Manager
	dispatcher *dispatch.Dispatcher
	handlers   map[byte]primary.MessageHandler
	handles    map[int]secondary.WorkerHandle

	awaitingDeath bool
	readyFired    bool
	started       bool
	ctx           context.Context

	ops     chan func()
	done    chan struct{}
	runOnce sync.Once
}

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the clock that drives kill timers
func WithClock(clock secondary.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithObservers registers observers, called in order for every event
func WithObservers(observers ...primary.EventObserver) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, observers...)
	}
}

func NewController(cfg *config.ClusterConfig, spawner secondary.WorkerSpawner, logger primary.Logger, opts ...Option) *Controller {
	c := &Controller{
		cfg:     cfg,
		spawner: spawner,
		clock:   secondary.RealClock{},
		logger:  logger.With("component", "cluster"),
		handles: make(map[int]secondary.WorkerHandle),
		ctx:     context.Background(),
		ops:     make(chan func(), opQueueSize),
		done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.tracker = forktracker.NewTracker(cfg.Quota(), logger)
	c.lifecycle = lifecycle.NewManager(
		c.tracker,
		c.clock,
		c.handle,
		c.timerFired,
		lifecycle.Config{
			DoForceKills:                             cfg.DoForceKills,
			TimeoutToForceKill:                       cfg.TimeoutToForceKill,
			DoForceKillsWhenGracefulKillsFail:        cfg.DoForceKillsWhenGracefulKillsFail,
			TimeoutToForceKillWhenGracefulKillFailed: cfg.TimeoutToForceKillWhenGracefulKillFailed,
		},
		logger,
	)
	c.dispatcher = dispatch.NewDispatcher(
		c.tracker,
		c.lifecycle,
		c.handle,
		func() bool { return c.awaitingDeath },
		c.emit,
		logger,
	)
	c.handlers = handlers.New(c.dispatcher, logger)

	return c
}

// Run processes posted operations until ctx is cancelled. It may be called
// once.
func (c *Controller) Run(ctx context.Context) error {
	started := false
	c.runOnce.Do(func() { started = true })
	if !started {
		return errs.ErrAlreadyStarted
	}
	defer close(c.done)

	c.ctx = ctx
	c.logger.Info("Cluster controller running")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Cluster controller stopped")
			return nil
		case op := <-c.ops:
			op()
		}
	}
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// do runs fn on the loop and waits for it.
func (c *Controller) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	op := func() {
		defer close(finished)
		fn()
	}

	select {
	case c.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return errs.ErrControllerStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return errs.ErrControllerStopped
	}
}

// post queues fn without waiting for it.
func (c *Controller) post(fn func()) {
	select {
	case c.ops <- fn:
	case <-c.done:
	}
}

// Start spawns the initial worker set. Workers spawned before a failure
// stay up.
func (c *Controller) Start(ctx context.Context) error {
	var err error
	if doErr := c.do(ctx, func() { err = c.start() }); doErr != nil {
		return doErr
	}
	return err
}

func (c *Controller) start() error {
	if c.started {
		return errs.ErrAlreadyStarted
	}
	c.started = true

	forks := c.cfg.Forks()
	c.logger.Info("Spawning workers", "count", forks, "quota", c.cfg.Quota())
	for i := 0; i < forks; i++ {
		if err := c.spawn(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) spawn() error {
	handle, err := c.spawner.Spawn(c.ctx, c)
	if err != nil {
		c.logger.Error("Failed to spawn worker", "error", err)
		return fmt.Errorf("failed to spawn worker: %w", err)
	}

	c.handles[handle.ID()] = handle
	rec := c.tracker.Register(handle.ID())
	c.logger.Info("Worker spawned", "workerId", handle.ID(), "slot", rec.SlotIndex)
	return nil
}

func (c *Controller) handle(workerID int) (secondary.WorkerHandle, bool) {
	h, ok := c.handles[workerID]
	return h, ok
}

// timerFired runs on the timer goroutine.
func (c *Controller) timerFired(workerID int, kind lifecycle.TimerKind) {
	c.post(func() { c.lifecycle.OnTimer(workerID, kind) })
}

func (c *Controller) emit(event domain.Event) {
	for _, obs := range c.observers {
		obs.HandleEvent(event)
	}
}

// WorkerMessage implements secondary.WorkerEventSink.
func (c *Controller) WorkerMessage(workerID int, msg ipc.Message) {
	c.post(func() { c.onMessage(workerID, msg) })
}

// WorkerExited implements secondary.WorkerEventSink.
func (c *Controller) WorkerExited(workerID int, code int, signal string) {
	c.post(func() { c.onExit(workerID, code, signal) })
}

func (c *Controller) onMessage(workerID int, msg ipc.Message) {
	handler, ok := c.handlers[msg.Type]
	if !ok {
		c.logger.Error("Unknown message type", "workerId", workerID, "type", msg.Type)
		return
	}
	if err := handler.HandleMessage(workerID, msg); err != nil {
		c.logger.Error("Error handling message", "workerId", workerID, "type", ipc.TypeName(msg.Type), "error", err)
	}
}

func (c *Controller) onExit(workerID int, code int, signal string) {
	if _, ok := c.handles[workerID]; !ok {
		return
	}

	pending := c.tracker.Pending(workerID)
	c.lifecycle.OnExit(workerID)
	delete(c.handles, workerID)

	c.logger.Info("Worker exited", "workerId", workerID, "code", code, "signal", signal, "pendingJobs", len(pending))
	c.emit(domain.WorkerExited{WorkerID: workerID, Code: code, Signal: signal})

	if c.cfg.RespawnOnExit && !c.awaitingDeath {
		if err := c.spawn(); err != nil {
			c.logger.Error("Failed to replace exited worker", "workerId", workerID, "error", err)
		}
	}

	// Pending jobs are reported before ready-to-die so observers see them first.
	c.dispatcher.Requeue(pending)
	c.checkReadyToDie()
}

func (c *Controller) checkReadyToDie() {
	if !c.awaitingDeath || c.readyFired || c.tracker.Len() > 0 {
		return
	}
	c.readyFired = true
	c.logger.Info("All workers exited, ready to die")
	c.emit(domain.ReadyToDie{})
}

func (c *Controller) RequestJob(ctx context.Context, identifier domain.ChannelIdentifier, task string) error {
	var err error
	if doErr := c.do(ctx, func() { err = c.dispatcher.RequestJob(identifier, task) }); doErr != nil {
		return doErr
	}
	return err
}

func (c *Controller) Die(ctx context.Context) error {
	return c.do(ctx, func() {
		if !c.awaitingDeath {
			c.logger.Info("Awaiting death")
		}
		c.awaitingDeath = true
		c.checkReadyToDie()
		for _, rec := range c.tracker.Records() {
			c.lifecycle.Drain(rec.WorkerID)
		}
	})
}

// Undie leaves the awaiting-death state and refills the pool when
// respawning is enabled.
func (c *Controller) Undie(ctx context.Context) error {
	return c.do(ctx, func() {
		c.logger.Warn("Undie requested, restarting the process is preferred")
		c.awaitingDeath = false
		c.readyFired = false
		if !c.started || !c.cfg.RespawnOnExit {
			return
		}
		for c.tracker.Len() < c.cfg.Forks() {
			if err := c.spawn(); err != nil {
				return
			}
		}
	})
}

func (c *Controller) AwaitingDeath(ctx context.Context) (bool, error) {
	var dying bool
	err := c.do(ctx, func() { dying = c.awaitingDeath })
	return dying, err
}

func (c *Controller) Snapshot(ctx context.Context) ([]domain.WorkerSnapshot, error) {
	var snaps []domain.WorkerSnapshot
	err := c.do(ctx, func() {
		snaps = c.tracker.Snapshot()
		for i := range snaps {
			if c.lifecycle.IsRetiring(snaps[i].WorkerID) {
				snaps[i].State = string(domain.WorkerRetiring)
			}
		}
	})
	return snaps, err
}
