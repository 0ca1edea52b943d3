package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes. Expected absence (an element
// that never showed up, a selector that matched nothing) is never an
// error anywhere in this codebase; it is a nil or false return. Errors
// are reserved for faults the caller cannot retry past.
var (
	ErrBrowserGone        = errors.New("browser connection lost")
	ErrNoPendingTasks     = errors.New("no pending tasks")
	ErrInterventionDenied = errors.New("manual intervention unavailable")
	ErrUploaderDisabled   = errors.New("image uploader not configured")
)

// LaunchError wraps a browser launch/connect failure. Always fatal for
// the whole run.
type LaunchError struct {
	Attempts int
	Err      error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("browser launch failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// GenerationError wraps a failure inside a generation round. Fails the
// current task only.
type GenerationError struct {
	Platform string
	Stage    string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed on %s (stage=%s): %v", e.Platform, e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// AssemblyError wraps a failure inside the article assembly chain.
type AssemblyError struct {
	Stage string
	Err   error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembly failed (stage=%s): %v", e.Stage, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// StoreError wraps a task-store read/write failure.
type StoreError struct {
	Backend string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("task store error (%s): %v", e.Backend, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
