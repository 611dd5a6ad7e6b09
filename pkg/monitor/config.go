package monitor

import "time"

// Config holds the tunables of the monitor loop.
type Config struct {
	// Rotation
	RotationThreshold float64       // Degrees away from baseline that count as rotated
	ViolationTime     time.Duration // How long rotation must persist before it is flagged

	// Fetch retry budget
	MaxRetries int           // Consecutive transport failures before giving up
	Backoff    time.Duration // Sleep between failed fetches

	// Phone detection
	PhoneClass      string  // Detector class name to watch for
	PhoneConfidence float64 // Minimum detector confidence

	// Only compute orientation when a face is visible
	RequireFace bool
}

// DefaultConfig returns the thresholds the monitor was tuned with.
func DefaultConfig() Config {
	return Config{
		RotationThreshold: 8.0,             // degrees
		ViolationTime:     1 * time.Second, // sustained rotation
		MaxRetries:        5,
		Backoff:           2 * time.Second,
		PhoneClass:        "cell phone",
		PhoneConfidence:   0.5,
		RequireFace:       true,
	}
}
