package endpoint_test

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/davidteren/tauri-todo/internal/endpoint"
	"github.com/davidteren/tauri-todo/internal/model"
	"github.com/davidteren/tauri-todo/internal/supervisor"
	"github.com/stretchr/testify/require"
)

func TestParsePort(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		given    string
		port     string
		ok       bool
	}{
		{
			scenario: "bandit announcement",
			given:    "Running X with Bandit 1.8.0 at 127.0.0.1:54321 (http)",
			port:     "54321",
			ok:       true,
		},
		{
			scenario: "trailing word",
			given:    "Running Foo with Bandit 1.8.0 at 127.0.0.1:58233 endpoint",
			port:     "58233",
			ok:       true,
		},
		{
			scenario: "tab separator",
			given:    "Running TodoErrWeb.Endpoint at 127.0.0.1:4001\t(http)",
			port:     "4001",
			ok:       true,
		},
		{
			scenario: "end of line",
			given:    "Running TodoErrWeb.Endpoint at 127.0.0.1:4001",
			port:     "4001",
			ok:       true,
		},
		{
			scenario: "no running marker",
			given:    "Listening at 127.0.0.1:4001 (http)",
		},
		{
			scenario: "no loopback marker",
			given:    "Running TodoErrWeb.Endpoint at 0.0.0.0:4001 (http)",
		},
		{
			scenario: "port missing",
			given:    "Running X at 127.0.0.1: (http)",
		},
		{
			scenario: "garbage without separator",
			given:    "Running X at 127.0.0.1:4001abc",
		},
		{
			scenario: "non numeric",
			given:    "Running X at 127.0.0.1:http (http)",
		},
		{
			scenario: "zero",
			given:    "Running X at 127.0.0.1:0 (http)",
		},
		{
			scenario: "too large",
			given:    "Running X at 127.0.0.1:70000 (http)",
		},
		{
			scenario: "too long",
			given:    "Running X at 127.0.0.1:0000080 (http)",
		},
		{
			scenario: "empty",
			given:    "",
		},
		{
			scenario: "marker at end",
			given:    "Running 127.0.0.1:",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			port, ok := endpoint.ParsePort(tc.given)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.port, port)
		})
	}
}

func TestFindPort(t *testing.T) {
	lines := []string{
		"Compiling 3 files (.ex)",
		"Running X at 127.0.0.1:oops",
		"Running X at 127.0.0.1:4001 (http)",
		"Running X at 127.0.0.1:4002 (http)",
	}
	var seen int
	seq := func(yield func(string) bool) {
		for _, l := range lines {
			seen++
			if !yield(l) {
				return
			}
		}
	}

	port, ok := endpoint.FindPort(seq)
	require.True(t, ok)
	require.Equal(t, "4001", port)
	require.Equal(t, 3, seen)

	_, ok = endpoint.FindPort(slices.Values(lines[:2]))
	require.False(t, ok)
}

func TestCell(t *testing.T) {
	cell := endpoint.NewCell()
	require.Equal(t, endpoint.Unresolved, cell.Load().Status)
	require.False(t, cell.Set(endpoint.State{}))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := cell.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	var wg sync.WaitGroup
	states := make([]endpoint.State, 4)
	for i := range states {
		wg.Go(func() {
			s, err := cell.Wait(t.Context())
			require.NoError(t, err)
			states[i] = s
		})
	}

	require.True(t, cell.Set(endpoint.ResolvedState("4001")))
	require.False(t, cell.Set(endpoint.FailedState("late")))
	wg.Wait()

	want := endpoint.State{Status: endpoint.Resolved, URL: "http://localhost:4001"}
	for _, s := range states {
		require.Equal(t, want, s)
	}
	require.Equal(t, want, cell.Load())
}

func feed(events ...supervisor.OutputEvent) chan supervisor.OutputEvent {
	ch := make(chan supervisor.OutputEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	return ch
}

func stdout(line string) supervisor.OutputEvent {
	return supervisor.OutputEvent{Kind: supervisor.EventStdout, Line: line}
}

func TestDiscovery(t *testing.T) {
	t.Parallel()
	t.Run("first match wins", func(t *testing.T) {
		ch := feed(
			supervisor.OutputEvent{Kind: supervisor.EventStderr, Line: "Running X at 127.0.0.1:1111 (http)"},
			stdout("Running X at 127.0.0.1:bad"),
			stdout("Running X at 127.0.0.1:58233 endpoint"),
			stdout("Running X at 127.0.0.1:4002 (http)"),
		)
		state := endpoint.Discovery{}.Resolve(t.Context(), ch)
		require.Equal(t, endpoint.State{Status: endpoint.Resolved, URL: "http://localhost:58233"}, state)
		// the rest of the stream is left to the caller
		require.Len(t, ch, 1)
	})
	t.Run("terminated first", func(t *testing.T) {
		ch := feed(
			stdout("booting"),
			supervisor.OutputEvent{Kind: supervisor.EventTerminated, ExitCode: 1},
		)
		state := endpoint.Discovery{}.Resolve(t.Context(), ch)
		require.Equal(t, endpoint.FailedState(endpoint.ReasonNotAnnounced), state)
	})
	t.Run("closed stream", func(t *testing.T) {
		ch := feed(stdout("booting"))
		close(ch)
		state := endpoint.Discovery{}.Resolve(t.Context(), ch)
		require.Equal(t, endpoint.Failed, state.Status)
		require.Equal(t, endpoint.ReasonNotAnnounced, state.Reason)
	})
	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		state := endpoint.Discovery{}.Resolve(ctx, make(chan supervisor.OutputEvent))
		require.Equal(t, endpoint.Failed, state.Status)
		require.Contains(t, state.Reason, "context canceled")
	})
}

func TestNew(t *testing.T) {
	r := endpoint.New(model.LaunchConfig{Mode: model.ModeStatic, Port: 4001})
	require.Equal(t, endpoint.Static{Port: 4001}, r)
	// static mode never reads the stream
	state := r.Resolve(t.Context(), nil)
	require.Equal(t, endpoint.State{Status: endpoint.Resolved, URL: "http://localhost:4001"}, state)

	require.Equal(t, endpoint.Discovery{}, endpoint.New(model.LaunchConfig{Mode: model.ModeDiscover}))
}
