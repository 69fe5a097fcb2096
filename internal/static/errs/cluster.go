package errs

import "errors"

var (
	ErrNoWorkerAvailable = errors.New("no worker available")
	ErrWorkerNotFound    = errors.New("worker not found")
	ErrControllerStopped = errors.New("cluster controller stopped")
	ErrAlreadyStarted    = errors.New("workers already spawned")
	ErrInvalidParams     = errors.New("invalid params")
)
