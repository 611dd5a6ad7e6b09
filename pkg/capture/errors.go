package capture

import (
	"errors"
	"fmt"
)

// ErrDecode is the cause recorded on a DecodeFailure result.
var ErrDecode = errors.New("capture: payload is not a decodable image")

// StatusError is returned when the camera answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("capture: camera returned %s", e.Status)
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *StatusError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}
