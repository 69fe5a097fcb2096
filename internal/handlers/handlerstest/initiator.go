// Package handlerstest provides a JobInitiator fake for HTTP handler tests.
package handlerstest

import (
	"context"
	"sync"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
)

var _ primary.JobInitiator = &FakeInitiator{}

// Request is a recorded RequestJob call.
type Request struct {
	Identifier domain.ChannelIdentifier
	Task       string
}

type FakeInitiator struct {
	mu sync.Mutex

	RequestErr error
	LifeErr    error
	Workers    []domain.WorkerSnapshot

	requests []Request
	dying    bool
	dies     int
	undies   int
}

func (f *FakeInitiator) RequestJob(ctx context.Context, identifier domain.ChannelIdentifier, task string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, Request{Identifier: identifier, Task: task})
	return f.RequestErr
}

func (f *FakeInitiator) Die(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LifeErr != nil {
		return f.LifeErr
	}
	f.dies++
	f.dying = true
	return nil
}

func (f *FakeInitiator) Undie(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LifeErr != nil {
		return f.LifeErr
	}
	f.undies++
	f.dying = false
	return nil
}

func (f *FakeInitiator) AwaitingDeath(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dying, f.LifeErr
}

func (f *FakeInitiator) Snapshot(ctx context.Context) ([]domain.WorkerSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Workers, f.LifeErr
}

func (f *FakeInitiator) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

func (f *FakeInitiator) Counts() (dies, undies int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dies, f.undies
}
