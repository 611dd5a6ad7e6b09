package monitor

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-proctor/pkg/detection"
	"github.com/teslashibe/go-proctor/pkg/violation"
)

// PhoneEvents returns one Phone violation per detected box. The detector has
// already filtered boxes by class and confidence.
func PhoneEvents(boxes []detection.ObjectDetection, frame gocv.Mat, now time.Time) []violation.Event {
	events := make([]violation.Event, 0, len(boxes))
	for range boxes {
		events = append(events, violation.New(violation.Phone, now, frame))
	}
	return events
}
