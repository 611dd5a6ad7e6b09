package notify

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned when publishing on a closed NATS connection.
var ErrNotConnected = errors.New("notify: not connected")

// StatusError is returned when the violation endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("notify: endpoint returned %s", e.Status)
}
