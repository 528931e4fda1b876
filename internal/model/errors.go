package model

import (
	"errors"
	"fmt"
)

var (
	ErrProbeTimeout  = errors.New("backend did not answer before the readiness deadline")
	ErrNotExecutable = errors.New("not an executable file")
)

// SpawnError reports that the backend could not be located or started.
type SpawnError struct {
	Path string
	Op   string // locate | pipe | start
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning backend: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ResolutionError reports that the backend endpoint was never determined.
type ResolutionError struct {
	Reason string
}

func (e *ResolutionError) Error() string {
	return "resolving backend endpoint: " + e.Reason
}
