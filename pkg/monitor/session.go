package monitor

// Session is the mutable state of one monitoring run. It is owned by the
// loop goroutine and never shared.
type Session struct {
	Calibration Calibration
	Rotation    *RotationMachine

	failures int
}

// NewSession creates an uncalibrated session.
func NewSession(cfg Config) *Session {
	return &Session{
		Rotation: NewRotationMachine(cfg.RotationThreshold, cfg.ViolationTime),
	}
}

// Reset drops the calibration so the next sample becomes the new baseline.
func (s *Session) Reset() {
	s.Calibration.Reset()
}

// Failures returns the current run of consecutive transport failures.
func (s *Session) Failures() int {
	return s.failures
}
