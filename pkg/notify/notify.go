// Package notify reports violations to the outside world. Delivery is best
// effort: failures are logged and counted, never returned to the monitor loop.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/teslashibe/go-proctor/pkg/violation"
)

// Notifier delivers a violation. Implementations must not block longer than
// their own timeout and must absorb delivery errors.
type Notifier interface {
	Notify(ctx context.Context, ev violation.Event)
}

// Payload is the JSON body sent for every violation.
type Payload struct {
	ID        string         `json:"id"`
	Kind      violation.Kind `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewPayload builds the wire form of ev.
func NewPayload(ev violation.Event) Payload {
	return Payload{
		ID:        ev.ID,
		Kind:      ev.Kind,
		Timestamp: ev.Time.UTC(),
	}
}

func encode(ev violation.Event) ([]byte, error) {
	return json.Marshal(NewPayload(ev))
}

// Multi fans a violation out to every notifier in order.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, ev violation.Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, ev)
		}
	}
}

// Nop drops every violation.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, violation.Event) {}
