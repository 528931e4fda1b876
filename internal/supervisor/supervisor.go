// Package supervisor starts the bundled backend and streams its output.
//
// Launch returns a Child whose Events channel carries every stdout and stderr
// line in arrival order per stream, followed by exactly one EventTerminated.
// The channel is closed after that. Callers must keep reading Events until it
// is closed, otherwise the backend blocks on a full pipe.
//
// Cancelling the context passed to Launch asks the backend to stop (SIGTERM on
// unix) and kills it after WaitDelay.
package supervisor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/davidteren/tauri-todo/internal/model"
)

type EventKind int

const (
	EventStdout EventKind = iota + 1
	EventStderr
	EventError
	EventTerminated
)

func (k EventKind) String() string {
	switch k {
	case EventStdout:
		return "stdout"
	case EventStderr:
		return "stderr"
	case EventError:
		return "error"
	case EventTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// OutputEvent is one observation of the running backend.
type OutputEvent struct {
	Kind     EventKind
	Line     string // stdout, stderr
	Err      error  // error, terminated
	ExitCode int    // terminated; -1 when killed by a signal
	Status   string // terminated
	Time     time.Time
}

const (
	// WaitDelay is how long a cancelled backend may take to exit before it is killed.
	WaitDelay = 5 * time.Second
	// drainGrace bounds reading leftover output once the backend exited.
	drainGrace = 2 * time.Second
	maxLine    = 1024 * 1024
	eventsBuf  = 256
)

// Child is a running backend process.
type Child struct {
	cmd    *exec.Cmd
	events chan OutputEvent
	done   chan struct{}

	mx      sync.Mutex
	state   *os.ProcessState
	waitErr error
}

// Launch starts the backend described by cfg.
// Errors are always *model.SpawnError.
func Launch(ctx context.Context, cfg model.LaunchConfig) (*Child, error) {
	if err := checkExecutable(cfg.Executable); err != nil {
		return nil, &model.SpawnError{Path: cfg.Executable, Op: "locate", Err: err}
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, &model.SpawnError{Path: cfg.Executable, Op: "pipe", Err: err}
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(outR, outW)
		return nil, &model.SpawnError{Path: cfg.Executable, Op: "pipe", Err: err}
	}

	cmd := exec.CommandContext(ctx, cfg.Executable, cfg.Args...)
	cmd.Dir = cfg.WorkDir
	cmd.Env = Environ(os.Environ(), cfg)
	cmd.Stdout = outW
	cmd.Stderr = errW
	cmd.Cancel = terminate(cmd)
	cmd.WaitDelay = WaitDelay

	err = cmd.Start()
	// the child owns the write ends now
	closeAll(outW, errW)
	if err != nil {
		closeAll(outR, errR)
		return nil, &model.SpawnError{Path: cfg.Executable, Op: "start", Err: err}
	}

	slog.DebugContext(ctx, "backend started",
		"path", cfg.Executable,
		"args", cfg.Args,
		"pid", cmd.Process.Pid,
	)

	c := &Child{
		cmd:    cmd,
		events: make(chan OutputEvent, eventsBuf),
		done:   make(chan struct{}),
	}

	var scanners sync.WaitGroup
	scanners.Go(func() { c.scan(EventStdout, outR) })
	scanners.Go(func() { c.scan(EventStderr, errR) })
	go c.wait(&scanners, outR, errR)
	return c, nil
}

// Events returns the output stream. It is closed after EventTerminated.
func (c *Child) Events() <-chan OutputEvent {
	return c.events
}

// Done is closed once the backend exited and all output was delivered.
func (c *Child) Done() <-chan struct{} {
	return c.done
}

func (c *Child) PID() int {
	return c.cmd.Process.Pid
}

// ExitState returns the process state and the error from Wait.
// Both are nil until Done is closed.
func (c *Child) ExitState() (*os.ProcessState, error) {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.state, c.waitErr
}

func (c *Child) scan(kind EventKind, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		c.events <- OutputEvent{Kind: kind, Line: scanner.Text(), Time: time.Now()}
	}
	err := scanner.Err()
	if err == nil || errors.Is(err, os.ErrClosed) {
		return
	}
	c.events <- OutputEvent{Kind: EventError, Err: err, Time: time.Now()}
	if errors.Is(err, bufio.ErrTooLong) {
		// keep the pipe empty so the backend does not block
		_, _ = io.Copy(io.Discard, r)
	}
}

func (c *Child) wait(scanners *sync.WaitGroup, readers ...*os.File) {
	err := c.cmd.Wait()

	drained := make(chan struct{})
	go func() {
		scanners.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(drainGrace):
		// a grandchild still holds the pipe open
		closeAll(readers...)
		<-drained
	}
	closeAll(readers...)

	state := c.cmd.ProcessState
	c.mx.Lock()
	c.state = state
	c.waitErr = err
	c.mx.Unlock()

	ev := OutputEvent{Kind: EventTerminated, Err: err, ExitCode: -1, Time: time.Now()}
	if state != nil {
		ev.ExitCode = state.ExitCode()
		ev.Status = state.String()
	}
	c.events <- ev
	close(c.events)
	close(c.done)
}

var contractKeys = []string{model.EnvDatabasePath, model.EnvServerEnabled, model.EnvPort}

// Environ builds the backend environment: base without the contract
// variables and without keys overridden by cfg.Env, then the overrides in
// key order, then the contract variables.
func Environ(base []string, cfg model.LaunchConfig) []string {
	drop := make(map[string]struct{}, len(cfg.Env)+len(contractKeys))
	for _, k := range contractKeys {
		drop[k] = struct{}{}
	}
	for k := range cfg.Env {
		drop[k] = struct{}{}
	}

	env := make([]string, 0, len(base)+len(cfg.Env)+3)
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if _, ok := drop[k]; ok {
			continue
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		if slices.Contains(contractKeys, k) {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		env = append(env, k+"="+cfg.Env[k])
	}
	return append(env, cfg.Environ()...)
}

func checkExecutable(path string) error {
	if path == "" {
		return os.ErrNotExist
	}
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if st.IsDir() || !executable(path, st.Mode()) {
		return model.ErrNotExecutable
	}
	return nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
