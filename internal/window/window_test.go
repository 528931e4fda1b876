package window

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zserge/lorca"
)

type fakeValue struct {
	lorca.Value
	err error
}

func (v fakeValue) Err() error { return v.err }

type fakeUI struct {
	lorca.UI
	evals   []string
	loads   []string
	evalErr error
	done    chan struct{}
}

func (u *fakeUI) Eval(js string) lorca.Value {
	u.evals = append(u.evals, js)
	return fakeValue{err: u.evalErr}
}

func (u *fakeUI) Load(url string) error {
	u.loads = append(u.loads, url)
	return nil
}

func (u *fakeUI) Done() <-chan struct{} { return u.done }

func (u *fakeUI) Close() error {
	close(u.done)
	return nil
}

func TestLorca_Redirect(t *testing.T) {
	ui := &fakeUI{done: make(chan struct{})}
	w := NewLorca(ui)

	require.NoError(t, w.Redirect("http://localhost:4001"))
	require.Equal(t, []string{`window.location.replace("http://localhost:4001")`}, ui.evals)
	require.Empty(t, ui.loads)

	ui.evalErr = errors.New("target closed")
	require.ErrorContains(t, w.Redirect("http://localhost:4001"), "target closed")

	require.NoError(t, w.Close())
	<-w.Done()
}

func TestLorca_ShowFallback(t *testing.T) {
	ui := &fakeUI{done: make(chan struct{})}
	w := NewLorca(ui)

	require.NoError(t, w.ShowFallback("Backend failed.\nLogs: /tmp/<x>/launcher.log"))
	require.Empty(t, ui.evals)
	require.Len(t, ui.loads, 1)

	raw, ok := strings.CutPrefix(ui.loads[0], "data:text/html;charset=utf-8,")
	require.True(t, ok)
	html, err := url.PathUnescape(raw)
	require.NoError(t, err)
	require.Contains(t, html, "<p>Backend failed.</p>")
	require.Contains(t, html, "<p>Logs: /tmp/&lt;x&gt;/launcher.log</p>")
}

func TestLoadingPage(t *testing.T) {
	require.Contains(t, LoadingPage(), "Starting TodoErr")
}

func TestBrowser(t *testing.T) {
	dir := t.TempDir()
	var opened []string
	b := NewBrowser(dir, func(target string) error {
		opened = append(opened, target)
		return nil
	})

	require.NoError(t, b.Redirect("http://localhost:4001"))
	require.NoError(t, b.ShowFallback("Backend failed."))

	page := filepath.Join(dir, "fallback.html")
	require.Equal(t, []string{
		"http://localhost:4001",
		"file://" + filepath.ToSlash(page),
	}, opened)

	b2, err := os.ReadFile(page)
	require.NoError(t, err)
	require.Contains(t, string(b2), "Backend failed.")
}
