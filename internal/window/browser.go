package window

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// OpenFunc hands target to the desktop to open.
type OpenFunc func(target string) error

// Browser sends the commands to the system browser.
type Browser struct {
	dir  string
	open OpenFunc
}

// NewBrowser writes fallback pages into dir. A nil open uses the platform opener.
func NewBrowser(dir string, open OpenFunc) *Browser {
	if open == nil {
		open = systemOpen
	}
	return &Browser{dir: dir, open: open}
}

func (b *Browser) Redirect(url string) error {
	return b.open(url)
}

func (b *Browser) ShowFallback(message string) error {
	path := filepath.Join(b.dir, "fallback.html")
	if err := os.WriteFile(path, []byte(FallbackPage(message)), 0o644); err != nil {
		return fmt.Errorf("writing fallback page: %w", err)
	}
	return b.open("file://" + filepath.ToSlash(path))
}

func systemOpen(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening %s: %w", target, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
