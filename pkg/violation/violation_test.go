package violation

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestNew(t *testing.T) {
	frame := gocv.NewMat()
	defer frame.Close()

	at := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	a := New(Phone, at, frame)
	b := New(Phone, at, frame)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty IDs, got %q and %q", a.ID, b.ID)
	}
	if a.Kind != Phone || !a.Time.Equal(at) {
		t.Errorf("unexpected event %+v", a)
	}
}

func TestKind_String(t *testing.T) {
	if Phone.String() != "phone" {
		t.Errorf("Phone = %q", Phone)
	}
	if HeadRotation.String() != "head_rotation" {
		t.Errorf("HeadRotation = %q", HeadRotation)
	}
}
