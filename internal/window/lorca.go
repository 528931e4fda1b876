package window

import (
	"encoding/json"
	"fmt"

	"github.com/zserge/lorca"
)

// Lorca is an app-mode Chrome window.
type Lorca struct {
	ui lorca.UI
}

// OpenLorca opens a window of the given size showing url.
func OpenLorca(url string, width, height int) (*Lorca, error) {
	ui, err := lorca.New(url, "", width, height)
	if err != nil {
		return nil, fmt.Errorf("opening window: %w", err)
	}
	return NewLorca(ui), nil
}

func NewLorca(ui lorca.UI) *Lorca {
	return &Lorca{ui: ui}
}

// Redirect replaces the current page with url.
func (w *Lorca) Redirect(url string) error {
	quoted, err := json.Marshal(url)
	if err != nil {
		return err
	}
	if err := w.ui.Eval(fmt.Sprintf("window.location.replace(%s)", quoted)).Err(); err != nil {
		return fmt.Errorf("redirecting window: %w", err)
	}
	return nil
}

// ShowFallback replaces the window content with a static diagnostic page.
func (w *Lorca) ShowFallback(message string) error {
	if err := w.ui.Load(DataURL(FallbackPage(message))); err != nil {
		return fmt.Errorf("showing fallback: %w", err)
	}
	return nil
}

// Done is closed when the user closes the window.
func (w *Lorca) Done() <-chan struct{} {
	return w.ui.Done()
}

func (w *Lorca) Close() error {
	return w.ui.Close()
}
