// Package display renders the operator view: annotated frames in an OpenCV
// window plus the q/r operator keys. A headless surface stands in when no
// window is available.
package display

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-proctor/pkg/detection"
)

// Key is an operator command read from the display.
type Key int

const (
	KeyNone Key = iota
	KeyQuit
	KeyReset
)

// String implements fmt.Stringer.
func (k Key) String() string {
	switch k {
	case KeyQuit:
		return "quit"
	case KeyReset:
		return "reset"
	default:
		return "none"
	}
}

// KeyFromCode maps a WaitKey code to an operator command.
func KeyFromCode(code int) Key {
	if code < 0 {
		return KeyNone
	}
	switch code & 0xFF {
	case 'q', 'Q':
		return KeyQuit
	case 'r', 'R':
		return KeyReset
	default:
		return KeyNone
	}
}

// RotationInfo is the rotation readout for one cycle.
type RotationInfo struct {
	Diff  float64 // Degrees away from the calibrated baseline
	Alert bool    // Draw in the alert colour
}

// Overlay is everything drawn on top of a frame.
type Overlay struct {
	Phones   []detection.ObjectDetection
	Face     *detection.Face
	Rotation *RotationInfo
}

var (
	Red   = color.RGBA{R: 255, A: 255}
	Green = color.RGBA{G: 255, A: 255}
)

// FaceColor is red while a rotation violation is active, green otherwise.
func FaceColor(alert bool) color.RGBA {
	if alert {
		return Red
	}
	return Green
}

// RotationText formats the rotation readout.
func RotationText(diff float64) string {
	return fmt.Sprintf("Rotation: %.1f deg", diff)
}

// Annotate draws the overlay onto img in place.
func Annotate(img *gocv.Mat, ov Overlay) {
	if img == nil || img.Empty() {
		return
	}
	w, h := img.Cols(), img.Rows()

	for _, p := range ov.Phones {
		r := p.Rect(w, h)
		gocv.Rectangle(img, r, Red, 2)
		gocv.PutText(img, "Phone", labelOrigin(r), gocv.FontHersheySimplex, 0.5, Red, 2)
	}

	alert := ov.Rotation != nil && ov.Rotation.Alert
	if ov.Face != nil {
		gocv.Rectangle(img, ov.Face.Rect(w, h), FaceColor(alert), 2)
	}

	if ov.Rotation != nil {
		gocv.PutText(img, RotationText(ov.Rotation.Diff), image.Pt(10, 30),
			gocv.FontHersheySimplex, 0.7, FaceColor(alert), 2)
	}
}

func labelOrigin(r image.Rectangle) image.Point {
	y := r.Min.Y - 10
	if y < 10 {
		y = r.Min.Y + 15
	}
	return image.Pt(r.Min.X, y)
}
