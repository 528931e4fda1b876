package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/davidteren/tauri-todo/internal/buildmode"
	"github.com/davidteren/tauri-todo/internal/datadir"
	"github.com/davidteren/tauri-todo/internal/log"
	"github.com/davidteren/tauri-todo/internal/metrics"
	"github.com/davidteren/tauri-todo/internal/model"
	"github.com/davidteren/tauri-todo/internal/probe"
	"github.com/davidteren/tauri-todo/internal/redirect"
	"github.com/davidteren/tauri-todo/internal/window"
)

func doRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	attrs := slog.Group("todoerr",
		slog.String("cmd", "run"),
		slog.Int("pid", os.Getpid()),
		slog.String("launch_id", uuid.NewString()),
	)
	ctx = log.ContextAttrs(ctx, attrs)

	timing, err := config.Timing()
	if err != nil {
		return err
	}

	executable := ""
	if config.Backend != nil {
		executable = string(config.Backend.Path)
	}
	if executable == "" {
		resources, err := datadir.ResourceDir()
		if err != nil {
			return err
		}
		executable = datadir.BackendPath(resources)
	}
	dev := buildmode.Enabled(viper.GetBool("dev"))
	launch := model.NewLaunchConfig(config, executable, dirs.Database, dirs.Data, dev)

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collector := metrics.NewNoop()
	if config.Metrics != nil && config.Metrics.Addr.AsTCPAddr() != nil {
		prom := metrics.NewPrometheus("todoerr")
		collector = prom
		addr := config.Metrics.Addr.String()
		wg.Go(func() {
			if err := metrics.Serve(ctx, addr, prom.Handler()); err != nil {
				slog.ErrorContext(ctx, "serving metrics", "addr", addr, "error", err)
			}
		})
	}

	prober := probe.New(probe.NewHTTPChecker(),
		probe.WithInterval(timing.Interval),
		probe.WithTimeout(timing.Timeout),
		probe.WithAttemptTimeout(timing.AttemptTimeout),
		probe.WithMetrics(collector),
	)

	win, closed, closeWin := openWindow(ctx, dev)
	defer closeWin()

	controller := redirect.New(launch, redirect.Options{
		Prober:      prober,
		Window:      win,
		Settle:      timing.Settle,
		AbortOnExit: timing.AbortOnExit,
		LogPath:     logHint(),
		Metrics:     collector,
	})
	runErr := make(chan error, 1)
	wg.Go(func() {
		runErr <- controller.Run(ctx)
	})

	// the app window owns the lifetime, the browser has no close signal
	var done <-chan error
	if closed == nil {
		done = runErr
	}
	select {
	case <-closed:
		slog.InfoContext(ctx, "window closed")
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down", "cause", context.Cause(ctx))
	case err := <-done:
		return err
	}

	outcome := controller.State()
	cancel()
	wg.Wait()
	err = <-runErr
	if outcome != redirect.FallbackShown {
		// shutdown came before the launch failed
		return nil
	}
	return err
}

// openWindow opens the app window, or the system browser when configured
// or when no Chrome is available. closed is nil for the browser.
func openWindow(ctx context.Context, dev bool) (win redirect.Window, closed <-chan struct{}, closeFn func()) {
	start := window.DataURL(window.LoadingPage())
	if dev {
		start = buildmode.DevServerURL
	}

	if config.Window == nil || !config.Window.Browser {
		width, height := config.WindowSize()
		lw, err := window.OpenLorca(start, width, height)
		if err == nil {
			return lw, lw.Done(), func() { _ = lw.Close() }
		}
		slog.WarnContext(ctx, "app window unavailable, using the system browser", "error", err)
	}

	b := window.NewBrowser(dirs.Data, nil)
	if dev {
		if err := b.Redirect(start); err != nil {
			slog.ErrorContext(ctx, "opening browser", "error", err)
		}
	}
	return b, nil, func() {}
}
