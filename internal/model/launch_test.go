package model_test

import (
	"testing"

	"github.com/davidteren/tauri-todo/internal/model"
	"github.com/stretchr/testify/require"
)

func TestNewLaunchConfig(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		given    model.Config
		args     []string
		port     string
	}{
		{
			scenario: "discover defaults",
			given:    model.Config{Mode: model.ModeDiscover},
			args:     []string{"start"},
			port:     "0",
		},
		{
			scenario: "empty mode is discover",
			given:    model.Config{},
			args:     []string{"start"},
			port:     "0",
		},
		{
			scenario: "static",
			given:    model.Config{Mode: model.ModeStatic, Port: 4001},
			args:     nil,
			port:     "4001",
		},
		{
			scenario: "explicit args",
			given: model.Config{
				Mode:    model.ModeDiscover,
				Backend: &model.Backend{Args: []string{"daemon"}},
			},
			args: []string{"daemon"},
			port: "0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			lc := model.NewLaunchConfig(tc.given, "/bin/todo_err", "/data/todo_err.db", "/data", false)
			require.Equal(t, tc.args, lc.Args)
			require.Equal(t, tc.port, lc.PortDirective())
			require.Equal(t, []string{
				"DATABASE_PATH=/data/todo_err.db",
				"PHX_SERVER=true",
				"PORT=" + tc.port,
			}, lc.Environ())
		})
	}
}

func TestNewLaunchConfig_EnvCopied(t *testing.T) {
	env := map[string]string{"A": "1"}
	lc := model.NewLaunchConfig(model.Config{Backend: &model.Backend{Env: env}}, "x", "y", "z", true)
	env["A"] = "2"
	require.Equal(t, "1", lc.Env["A"])
	require.True(t, lc.Dev)
}
