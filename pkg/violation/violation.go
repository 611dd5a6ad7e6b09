// Package violation defines the events raised by the monitor.
package violation

import (
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// Kind is the class of a violation.
type Kind string

const (
	// Phone is raised for every monitored object visible in a frame.
	Phone Kind = "phone"
	// HeadRotation is raised once when sustained head rotation is confirmed.
	HeadRotation Kind = "head_rotation"
)

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// Event is a single violation. Frame is borrowed from the cycle that raised
// it and is only valid until that cycle ends.
type Event struct {
	ID    string
	Kind  Kind
	Time  time.Time
	Frame gocv.Mat
}

// New creates an event with a fresh ID.
func New(kind Kind, at time.Time, frame gocv.Mat) Event {
	return Event{
		ID:    uuid.NewString(),
		Kind:  kind,
		Time:  at,
		Frame: frame,
	}
}
