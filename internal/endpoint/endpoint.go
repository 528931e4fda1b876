// Package endpoint determines the URL the backend serves on.
package endpoint

import (
	"context"
	"fmt"
	"sync"

	"github.com/davidteren/tauri-todo/internal/model"
	"github.com/davidteren/tauri-todo/internal/supervisor"
)

type Status int

const (
	Unresolved Status = iota
	Resolved
	Failed
)

func (s Status) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// State is the outcome of endpoint resolution.
type State struct {
	Status Status
	URL    string // Resolved
	Reason string // Failed
}

func ResolvedState(port string) State {
	return State{Status: Resolved, URL: "http://localhost:" + port}
}

func FailedState(reason string) State {
	return State{Status: Failed, Reason: reason}
}

// Cell holds a State that leaves Unresolved exactly once.
// Readers blocked in Wait observe the value written by the winning Set.
type Cell struct {
	once  sync.Once
	done  chan struct{}
	state State
}

func NewCell() *Cell {
	return &Cell{done: make(chan struct{})}
}

// Set stores s if the cell is still unresolved. It reports whether s was stored.
func (c *Cell) Set(s State) bool {
	if s.Status == Unresolved {
		return false
	}
	stored := false
	c.once.Do(func() {
		c.state = s
		stored = true
		close(c.done)
	})
	return stored
}

// Wait blocks until the cell is set or ctx is done.
func (c *Cell) Wait(ctx context.Context) (State, error) {
	select {
	case <-c.done:
		return c.state, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// Load returns the current state without blocking.
func (c *Cell) Load() State {
	select {
	case <-c.done:
		return c.state
	default:
		return State{}
	}
}

// Resolver produces exactly one non-Unresolved State from the backend output.
type Resolver interface {
	Resolve(ctx context.Context, events <-chan supervisor.OutputEvent) State
}

// Static resolves to a port known in advance and reads nothing.
type Static struct {
	Port int
}

func (s Static) Resolve(context.Context, <-chan supervisor.OutputEvent) State {
	return ResolvedState(fmt.Sprint(s.Port))
}

// ReasonNotAnnounced is the Failed reason when the backend stream ends first.
const ReasonNotAnnounced = "backend exited before announcing its port"

// Discovery scans stdout lines for the listening announcement.
type Discovery struct{}

func (Discovery) Resolve(ctx context.Context, events <-chan supervisor.OutputEvent) State {
	for {
		select {
		case <-ctx.Done():
			return FailedState(fmt.Sprintf("waiting for port announcement: %v", context.Cause(ctx)))
		case ev, ok := <-events:
			if !ok || ev.Kind == supervisor.EventTerminated {
				return FailedState(ReasonNotAnnounced)
			}
			if ev.Kind != supervisor.EventStdout {
				continue
			}
			if port, ok := ParsePort(ev.Line); ok {
				return ResolvedState(port)
			}
		}
	}
}

// New returns the resolver for the launch mode.
func New(cfg model.LaunchConfig) Resolver {
	if cfg.Mode == model.ModeStatic {
		return Static{Port: cfg.Port}
	}
	return Discovery{}
}
