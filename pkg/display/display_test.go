package display

import (
	"image"
	"testing"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-proctor/pkg/detection"
)

func TestKeyFromCode(t *testing.T) {
	tests := []struct {
		code int
		want Key
	}{
		{-1, KeyNone},
		{'q', KeyQuit},
		{'Q', KeyQuit},
		{'r', KeyReset},
		{'R', KeyReset},
		{'x', KeyNone},
		{0x100000 | 'q', KeyQuit}, // modifier bits set by some backends
		{27, KeyNone},
	}

	for _, tt := range tests {
		if got := KeyFromCode(tt.code); got != tt.want {
			t.Errorf("KeyFromCode(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestRotationText(t *testing.T) {
	if got := RotationText(12.345); got != "Rotation: 12.3 deg" {
		t.Errorf("RotationText = %q", got)
	}
	if got := RotationText(0); got != "Rotation: 0.0 deg" {
		t.Errorf("RotationText = %q", got)
	}
}

func TestFaceColor(t *testing.T) {
	if FaceColor(true) != Red {
		t.Error("alert should be red")
	}
	if FaceColor(false) != Green {
		t.Error("calm should be green")
	}
}

func TestAnnotate_DrawsPhoneBox(t *testing.T) {
	img := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer img.Close()

	ov := Overlay{
		Phones: []detection.ObjectDetection{{
			Detection: detection.Detection{X: 0.2, Y: 0.3, W: 0.4, H: 0.4, Confidence: 0.9},
			ClassName: "cell phone",
		}},
	}
	Annotate(&img, ov)

	// Left edge of the box at x=20, y=50 is drawn in red (BGR order).
	px := img.GetVecbAt(50, 20)
	if px[2] != 255 || px[1] != 0 || px[0] != 0 {
		t.Errorf("expected red pixel on box edge, got %v", px)
	}
}

func TestAnnotate_FaceColourFollowsAlert(t *testing.T) {
	for _, alert := range []bool{false, true} {
		img := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)

		face := &detection.Face{Detection: detection.Detection{X: 0.5, Y: 0.5, W: 0.3, H: 0.3}}
		Annotate(&img, Overlay{Face: face, Rotation: &RotationInfo{Diff: 3, Alert: alert}})

		px := img.GetVecbAt(65, 50)
		if alert && px[2] != 255 {
			t.Errorf("alert face box should be red, got %v", px)
		}
		if !alert && px[1] != 255 {
			t.Errorf("calm face box should be green, got %v", px)
		}
		img.Close()
	}
}

func TestAnnotate_EmptyImage(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()
	Annotate(&img, Overlay{Rotation: &RotationInfo{Diff: 1}})
}

func TestLabelOrigin(t *testing.T) {
	if got := labelOrigin(image.Rect(5, 50, 20, 60)); got != image.Pt(5, 40) {
		t.Errorf("labelOrigin above = %v", got)
	}
	if got := labelOrigin(image.Rect(5, 2, 20, 60)); got != image.Pt(5, 17) {
		t.Errorf("labelOrigin below = %v", got)
	}
}

func TestHeadless(t *testing.T) {
	var h Headless
	if h.PollKey() != KeyNone {
		t.Error("headless never reports keys")
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
