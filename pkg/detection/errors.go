package detection

import "errors"

var (
	// ErrModelNotFound is returned when a model file is missing on disk.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrModelLoad is returned when OpenCV cannot build a network from the files.
	ErrModelLoad = errors.New("detection: failed to load model")

	// ErrEmptyImage is returned when asked to run on an empty frame.
	ErrEmptyImage = errors.New("detection: empty image")
)
