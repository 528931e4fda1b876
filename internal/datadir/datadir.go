// Package datadir locates the per-user data directory and the bundled resources.
package datadir

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
)

const (
	AppName         = "TodoErr"
	DefaultDatabase = "todo_err.db"
	LogFile         = "launcher.log"
)

// Dirs are the resolved per-user paths. All directories exist after Resolve.
type Dirs struct {
	Data     string
	Logs     string
	Database string
	LogPath  string
}

// Resolve returns the data layout rooted at dir, or at the XDG data home
// when dir is empty. database overrides the file name of the SQLite store.
func Resolve(dir, database string) (Dirs, error) {
	if dir == "" {
		dir = filepath.Join(xdg.DataHome, AppName)
	}
	if database == "" {
		database = DefaultDatabase
	}

	d := Dirs{
		Data: dir,
		Logs: filepath.Join(dir, "logs"),
	}
	if filepath.IsAbs(database) {
		d.Database = database
	} else {
		d.Database = filepath.Join(dir, database)
	}
	d.LogPath = filepath.Join(d.Logs, LogFile)

	for _, p := range []string{d.Data, d.Logs, filepath.Dir(d.Database)} {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return Dirs{}, fmt.Errorf("creating %s: %w", p, err)
		}
	}
	return d, nil
}

// ResourceDir is the directory holding the bundled backend release: next to
// the launcher binary, or Contents/Resources inside a macOS app bundle.
func ResourceDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return resourceDir(runtime.GOOS, filepath.Dir(exe)), nil
}

func resourceDir(goos, exeDir string) string {
	if goos == "darwin" && filepath.Base(exeDir) == "MacOS" {
		return filepath.Join(filepath.Dir(exeDir), "Resources")
	}
	return exeDir
}

// BackendPath is the release start script under resourceDir.
func BackendPath(resourceDir string) string {
	return backendPath(runtime.GOOS, resourceDir)
}

func backendPath(goos, resourceDir string) string {
	name := "todo_err"
	if goos == "windows" {
		name += ".bat"
	}
	return filepath.Join(resourceDir, "bin", name)
}
