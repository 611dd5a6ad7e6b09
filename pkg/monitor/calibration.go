package monitor

// Calibration holds the baseline head angle. The first valid sample becomes
// the baseline and it only changes again after Reset.
type Calibration struct {
	baseline float64
	set      bool
}

// Observe records angle as the baseline if none is set. established is true
// only on the call that set it.
func (c *Calibration) Observe(angle float64) (baseline float64, established bool) {
	if c.set {
		return c.baseline, false
	}
	c.baseline = angle
	c.set = true
	return angle, true
}

// Baseline returns the current baseline, if set.
func (c *Calibration) Baseline() (float64, bool) {
	return c.baseline, c.set
}

// Reset clears the baseline so the next sample recalibrates.
func (c *Calibration) Reset() {
	c.baseline = 0
	c.set = false
}
