package log_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/davidteren/tauri-todo/internal/log"
	"github.com/stretchr/testify/require"
)

func TestContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, false)

	ctx := log.ContextAttrs(t.Context(), slog.String("launch_id", "abc"))
	child := log.ContextAttrs(ctx, slog.Int("pid", 42))
	logger.InfoContext(child, "started")
	logger.DebugContext(ctx, "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "started", rec["msg"])
	require.Equal(t, "abc", rec["launch_id"])
	require.EqualValues(t, 42, rec["pid"])

	buf.Reset()
	logger.InfoContext(ctx, "parent")
	rec = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.NotContains(t, rec, "pid")
}

func TestNew_Verbose(t *testing.T) {
	var buf bytes.Buffer
	log.New(&buf, true).With("component", "probe").DebugContext(
		log.ContextAttrs(t.Context(), slog.String("launch_id", "x")), "attempt")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "probe", rec["component"])
	require.Equal(t, "x", rec["launch_id"])
}

func TestSink(t *testing.T) {
	for _, dest := range []string{"", "stderr", "stdout", "discard"} {
		w, err := log.Sink(dest)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	path := filepath.Join(t.TempDir(), "logs", "launcher.log")
	w, err := log.Sink(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("line\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "line\n", string(b))
}
