package pose

import "errors"

var (
	// ErrModelNotFound is returned when a model file is missing on disk.
	ErrModelNotFound = errors.New("pose: model file not found")

	// ErrModelLoad is returned when OpenCV cannot build a network from the files.
	ErrModelLoad = errors.New("pose: failed to load model")

	// ErrUnexpectedOutput is returned when the network output has an unknown shape.
	ErrUnexpectedOutput = errors.New("pose: unexpected network output")
)
