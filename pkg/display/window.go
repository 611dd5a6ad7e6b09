package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// DefaultWindowName is the title of the operator window.
const DefaultWindowName = "Detection System"

// Window shows frames in a native OpenCV window.
type Window struct {
	win  *gocv.Window
	once sync.Once
}

// NewWindow opens a window with the given title.
func NewWindow(name string) *Window {
	if name == "" {
		name = DefaultWindowName
	}
	return &Window{win: gocv.NewWindow(name)}
}

// Annotate implements the monitor's surface.
func (w *Window) Annotate(img *gocv.Mat, ov Overlay) { Annotate(img, ov) }

// Show displays img.
func (w *Window) Show(img gocv.Mat) {
	if img.Empty() {
		return
	}
	w.win.IMShow(img)
}

// PollKey pumps the window event loop for 1ms and returns any operator key.
func (w *Window) PollKey() Key {
	return KeyFromCode(w.win.WaitKey(1))
}

// Close destroys the window. Safe to call more than once.
func (w *Window) Close() error {
	var err error
	w.once.Do(func() { err = w.win.Close() })
	return err
}

// Headless annotates frames but never shows them. It has no keyboard, so
// the monitor stops only through context cancellation.
type Headless struct{}

// Annotate draws the overlay so snapshots still carry it.
func (Headless) Annotate(img *gocv.Mat, ov Overlay) { Annotate(img, ov) }

// Show does nothing.
func (Headless) Show(gocv.Mat) {}

// PollKey always returns KeyNone.
func (Headless) PollKey() Key { return KeyNone }

// Close does nothing.
func (Headless) Close() error { return nil }
