package redirect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/davidteren/tauri-todo/internal/buildmode"
	"github.com/davidteren/tauri-todo/internal/endpoint"
	"github.com/davidteren/tauri-todo/internal/log"
	"github.com/davidteren/tauri-todo/internal/metrics"
	"github.com/davidteren/tauri-todo/internal/model"
	"github.com/davidteren/tauri-todo/internal/probe"
	"github.com/davidteren/tauri-todo/internal/supervisor"
)

type State int

const (
	Idle State = iota
	Launching
	ResolvingEndpoint
	Probing
	Redirected
	FallbackShown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Launching:
		return "launching"
	case ResolvingEndpoint:
		return "resolving_endpoint"
	case Probing:
		return "probing"
	case Redirected:
		return "redirected"
	case FallbackShown:
		return "fallback_shown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Window is the host window. Exactly one of its methods is called per launch.
type Window interface {
	Redirect(url string) error
	ShowFallback(message string) error
}

// Process is a started backend.
type Process interface {
	Events() <-chan supervisor.OutputEvent
	PID() int
}

type LaunchFunc func(ctx context.Context, cfg model.LaunchConfig) (Process, error)

// Supervise launches the backend with the supervisor package.
func Supervise(ctx context.Context, cfg model.LaunchConfig) (Process, error) {
	child, err := supervisor.Launch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return child, nil
}

type Prober interface {
	Probe(ctx context.Context, url string) probe.Outcome
}

type Options struct {
	Launch   LaunchFunc        // default Supervise
	Resolver endpoint.Resolver // default endpoint.New(cfg)
	Prober   Prober            // default HTTP prober with default timing
	Window   Window
	// Settle is waited between readiness and the redirect.
	Settle time.Duration
	// AbortOnExit stops probing as soon as the backend terminates.
	AbortOnExit bool
	// LogPath is shown to the user in the fallback page.
	LogPath string
	Metrics metrics.Collector
}

// Controller runs one launch lifecycle: start the backend, resolve its
// endpoint, wait for readiness and drive the window.
type Controller struct {
	cfg    model.LaunchConfig
	opts   Options
	window *guardedWindow
	cell   *endpoint.Cell

	mx      sync.Mutex
	state   State
	started time.Time
}

func New(cfg model.LaunchConfig, opts Options) *Controller {
	if opts.Launch == nil {
		opts.Launch = Supervise
	}
	if opts.Resolver == nil {
		opts.Resolver = endpoint.New(cfg)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	if opts.Prober == nil {
		opts.Prober = probe.New(probe.NewHTTPChecker(), probe.WithMetrics(opts.Metrics))
	}
	return &Controller{
		cfg:    cfg,
		opts:   opts,
		window: &guardedWindow{w: opts.Window},
		cell:   endpoint.NewCell(),
	}
}

func (c *Controller) State() State {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.state
}

func (c *Controller) setState(ctx context.Context, s State) {
	c.mx.Lock()
	from := c.state
	c.state = s
	c.mx.Unlock()
	slog.DebugContext(ctx, "lifecycle", "from", from.String(), "to", s.String())
}

// Run executes the lifecycle. It returns after the window command was issued
// and the backend output was drained, that is once the backend terminated or
// ctx was cancelled. The error is the reason a fallback was shown.
func (c *Controller) Run(ctx context.Context) error {
	if c.cfg.Dev {
		slog.InfoContext(ctx, "running in development mode, using dev server", "url", buildmode.DevServerURL)
		return nil
	}

	c.mx.Lock()
	c.started = time.Now()
	c.mx.Unlock()
	c.setState(ctx, Launching)

	proc, err := c.opts.Launch(ctx, c.cfg)
	if err != nil {
		slog.ErrorContext(ctx, "starting backend", "path", c.cfg.Executable, "error", err)
		c.fallback(ctx)
		return err
	}
	ctx = log.ContextAttrs(ctx, slog.Int("pid", proc.PID()))
	slog.InfoContext(ctx, "backend started", "path", c.cfg.Executable, "mode", c.cfg.Mode)
	c.setState(ctx, ResolvingEndpoint)

	probeCtx, cancelProbe := context.WithCancel(ctx)
	defer cancelProbe()

	feed := make(chan supervisor.OutputEvent)
	resolved := make(chan struct{})

	var g errgroup.Group
	g.Go(func() error {
		c.drain(ctx, proc.Events(), feed, resolved, cancelProbe)
		return nil
	})
	g.Go(func() error {
		defer close(resolved)
		c.resolve(ctx, feed)
		return nil
	})
	g.Go(func() error {
		return c.await(ctx, probeCtx)
	})
	return g.Wait()
}

// drain logs every backend event until the stream is closed. Events are
// copied to feed until the resolver is done.
func (c *Controller) drain(ctx context.Context, events <-chan supervisor.OutputEvent, feed chan<- supervisor.OutputEvent, resolved <-chan struct{}, abort context.CancelFunc) {
	forward := true
	for ev := range events {
		c.logEvent(ctx, ev)

		if forward {
			select {
			case feed <- ev:
			case <-resolved:
				forward = false
			}
		}

		if ev.Kind == supervisor.EventTerminated && c.opts.AbortOnExit && !c.window.issued() {
			slog.WarnContext(ctx, "backend exited before readiness, giving up")
			abort()
		}
	}
	if forward {
		close(feed)
	}
}

func (c *Controller) logEvent(ctx context.Context, ev supervisor.OutputEvent) {
	switch ev.Kind {
	case supervisor.EventStdout, supervisor.EventStderr:
		slog.InfoContext(ctx, "backend", "stream", ev.Kind.String(), "line", ev.Line)
	case supervisor.EventError:
		slog.ErrorContext(ctx, "reading backend output", "error", ev.Err)
	case supervisor.EventTerminated:
		attrs := []any{"exit_code", ev.ExitCode, "status", ev.Status}
		if c.window.issued() {
			slog.InfoContext(ctx, "backend exited", attrs...)
		} else {
			slog.WarnContext(ctx, "backend exited before readiness", attrs...)
		}
	}
}

func (c *Controller) resolve(ctx context.Context, feed <-chan supervisor.OutputEvent) {
	state := c.opts.Resolver.Resolve(ctx, feed)
	c.cell.Set(state)

	c.mx.Lock()
	elapsed := time.Since(c.started)
	c.mx.Unlock()
	c.opts.Metrics.EndpointResolved(c.cfg.Mode, elapsed, state.Status == endpoint.Resolved)

	if state.Status == endpoint.Resolved {
		slog.InfoContext(ctx, "backend endpoint resolved", "url", state.URL, "elapsed", elapsed)
	}
}

func (c *Controller) await(ctx, probeCtx context.Context) error {
	// the resolver always sets the cell, also on cancellation
	state, err := c.cell.Wait(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	if state.Status != endpoint.Resolved {
		rerr := &model.ResolutionError{Reason: state.Reason}
		slog.ErrorContext(ctx, "backend endpoint not resolved", "error", rerr)
		c.fallback(ctx)
		return rerr
	}

	c.setState(ctx, Probing)
	outcome := c.opts.Prober.Probe(probeCtx, state.URL)
	return c.Deliver(ctx, outcome, state.URL)
}

// Deliver issues the window command for a readiness outcome. Only the first
// command of a launch reaches the window, later ones are dropped.
func (c *Controller) Deliver(ctx context.Context, outcome probe.Outcome, url string) error {
	if outcome != probe.Ready {
		if !c.fallback(ctx) {
			return nil
		}
		return model.ErrProbeTimeout
	}

	if c.window.issued() {
		slog.WarnContext(ctx, "window command already issued, dropping redirect", "url", url)
		return nil
	}

	c.mx.Lock()
	elapsed := time.Since(c.started)
	c.mx.Unlock()
	c.opts.Metrics.BackendReady(elapsed)

	if c.opts.Settle > 0 {
		// a cancelled settle still redirects
		timer := time.NewTimer(c.opts.Settle)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	if !c.window.redirect(ctx, url) {
		return nil
	}
	c.setState(ctx, Redirected)
	c.opts.Metrics.LifecycleOutcome(Redirected.String())
	slog.InfoContext(ctx, "navigating to backend", "url", url)
	return nil
}

func (c *Controller) fallback(ctx context.Context) bool {
	if !c.window.showFallback(ctx, FallbackMessage(c.opts.LogPath)) {
		return false
	}
	c.setState(ctx, FallbackShown)
	c.opts.Metrics.LifecycleOutcome(FallbackShown.String())
	return true
}

// IsLifecycleError reports whether err is one of the errors Run returns after
// showing the fallback.
func IsLifecycleError(err error) bool {
	var spawnErr *model.SpawnError
	var resErr *model.ResolutionError
	return errors.As(err, &spawnErr) || errors.As(err, &resErr) || errors.Is(err, model.ErrProbeTimeout)
}
