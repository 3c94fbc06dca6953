package service

import "errors"

var (
	// ErrAlreadyRunning is reported in a skipped RunOutcome.
	ErrAlreadyRunning = errors.New("analysis already running")
	// ErrPhasePanic wraps a recovered panic from a pipeline phase.
	ErrPhasePanic = errors.New("pipeline phase panicked")
	// ErrStopped is returned by Start after Stop.
	ErrStopped = errors.New("service stopped")
)
