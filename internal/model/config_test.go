package model_test

import (
	"strings"
	"testing"
	"time"

	"github.com/davidteren/tauri-todo/internal/model"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	yml := `
version: 0
mode: static
port: 4001
log: stderr
backend:
  path: /opt/todo_err/bin/todo_err
  args: ["start"]
  env:
    SECRET_KEY_BASE: abc
probe:
  interval: 250ms
  timeout: 10s
  attempt_timeout: 1s
  settle: 0s
  abort_on_exit: true
window:
  width: 800
  height: 600
metrics:
  addr: 127.0.0.1:9464
`
	cfg, err := model.LoadConfig(strings.NewReader(yml))
	require.NoError(t, err)
	require.Equal(t, model.ModeStatic, cfg.Mode)
	require.Equal(t, 4001, cfg.Port)
	require.NotNil(t, cfg.Log)
	require.Equal(t, model.LogStderr, *cfg.Log)
	require.NotNil(t, cfg.Backend)
	require.Equal(t, model.Path("/opt/todo_err/bin/todo_err"), cfg.Backend.Path)
	require.Equal(t, []string{"start"}, cfg.Backend.Args)
	require.Equal(t, map[string]string{"SECRET_KEY_BASE": "abc"}, cfg.Backend.Env)
	require.NotNil(t, cfg.Metrics)
	require.NotNil(t, cfg.Metrics.Addr.AsTCPAddr())
	require.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr.String())

	timing, err := cfg.Timing()
	require.NoError(t, err)
	require.Equal(t, model.Timing{
		Interval:       250 * time.Millisecond,
		Timeout:        10 * time.Second,
		AttemptTimeout: time.Second,
		Settle:         0,
		AbortOnExit:    true,
	}, timing)

	w, h := cfg.WindowSize()
	require.Equal(t, 800, w)
	require.Equal(t, 600, h)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := model.LoadConfig(strings.NewReader("version: 0\n"))
	require.NoError(t, err)
	require.Equal(t, model.ModeDiscover, cfg.Mode)
	require.Nil(t, cfg.Log)

	timing, err := cfg.Timing()
	require.NoError(t, err)
	require.Equal(t, model.DefaultInterval, timing.Interval)
	require.Equal(t, model.DefaultTimeout, timing.Timeout)
	require.Equal(t, model.DefaultAttemptTimeout, timing.AttemptTimeout)
	require.Equal(t, model.DefaultSettle, timing.Settle)
	require.False(t, timing.AbortOnExit)

	w, h := cfg.WindowSize()
	require.Equal(t, model.DefaultWindowWidth, w)
	require.Equal(t, model.DefaultWindowHeight, h)
}

func TestLoadConfig_Fail(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		given    string
		path     string
	}{
		{
			scenario: "unknown field",
			given:    "version: 0\nbogus: 1\n",
			path:     "bogus",
		},
		{
			scenario: "invalid mode",
			given:    "version: 0\nmode: dynamic\n",
			path:     "mode",
		},
		{
			scenario: "port out of range",
			given:    "version: 0\nmode: static\nport: 70000\n",
			path:     "port",
		},
		{
			scenario: "bad duration",
			given:    "version: 0\nprobe:\n  interval: soon\n",
			path:     "probe.interval",
		},
		{
			scenario: "window too small",
			given:    "version: 0\nwindow:\n  width: 10\n",
			path:     "window.width",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			_, err := model.LoadConfig(strings.NewReader(tc.given))
			require.Error(t, err)

			details := model.CueErrDetails(err)
			require.NotEmpty(t, details)
			var paths []string
			for _, d := range details {
				paths = append(paths, d.Path)
			}
			require.Contains(t, paths, tc.path)
		})
	}
}

func TestLoadConfig_Validate(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		given    string
		then     string
	}{
		{
			scenario: "static without port",
			given:    "version: 0\nmode: static\n",
			then:     "port: required in static mode",
		},
		{
			scenario: "zero interval",
			given:    "version: 0\nprobe:\n  interval: 0s\n",
			then:     "probe.interval: must be positive, got 0s",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			_, err := model.LoadConfig(strings.NewReader(tc.given))
			require.EqualError(t, err, tc.then)
		})
	}
}

func TestLoadConfig_PublicMetricsAddr(t *testing.T) {
	_, err := model.LoadConfig(strings.NewReader("version: 0\nmetrics:\n  addr: 0.0.0.0:9464\n"))
	require.ErrorContains(t, err, "0.0.0.0 is not a loopback address")
}

func TestLoadConfig_ExpandPaths(t *testing.T) {
	t.Setenv("TODOERR_TEST_ROOT", "/opt/todoerr")
	yml := `
version: 0
backend:
  path: ${TODOERR_TEST_ROOT}/bin/todo_err
data:
  dir: $TODOERR_TEST_ROOT/data
`
	cfg, err := model.LoadConfig(strings.NewReader(yml))
	require.NoError(t, err)
	require.Equal(t, model.Path("/opt/todoerr/bin/todo_err"), cfg.Backend.Path)
	require.Equal(t, model.Path("/opt/todoerr/data"), cfg.Data.Dir)
}

func TestCueErrDetails_NotCue(t *testing.T) {
	require.Nil(t, model.CueErrDetails(nil))
}
