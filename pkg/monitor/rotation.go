package monitor

import (
	"math"
	"time"
)

// RotationState is where the head rotation detector currently is.
type RotationState int

const (
	// Calm: head within threshold of baseline.
	Calm RotationState = iota
	// Pending: over threshold, waiting for ViolationTime to elapse.
	Pending
	// Flagged: violation raised, no repeats until the head comes back.
	Flagged
)

// String implements fmt.Stringer.
func (s RotationState) String() string {
	switch s {
	case Calm:
		return "calm"
	case Pending:
		return "pending"
	case Flagged:
		return "flagged"
	default:
		return "unknown"
	}
}

// RotationResult is the outcome of one Update.
type RotationResult struct {
	Diff  float64       // abs(current - baseline) in degrees
	State RotationState // State after the update
	Emit  bool          // True on the single cycle that enters Flagged
}

// Alert reports whether the face should be drawn in the alert colour.
func (r RotationResult) Alert() bool {
	return r.State == Flagged
}

// RotationMachine debounces head rotation into at most one violation per
// excursion.
type RotationMachine struct {
	threshold float64
	hold      time.Duration

	state RotationState
	since time.Time // Start of the current excursion, valid unless Calm
}

// NewRotationMachine creates a machine in the Calm state.
func NewRotationMachine(threshold float64, hold time.Duration) *RotationMachine {
	return &RotationMachine{threshold: threshold, hold: hold}
}

// Update feeds one orientation sample taken at now.
func (m *RotationMachine) Update(current, baseline float64, now time.Time) RotationResult {
	diff := math.Abs(current - baseline)

	if diff < m.threshold {
		m.state = Calm
		return RotationResult{Diff: diff, State: Calm}
	}

	emit := false
	switch m.state {
	case Calm:
		m.state = Pending
		m.since = now
	case Pending:
		if now.Sub(m.since) >= m.hold {
			m.state = Flagged
			emit = true
		}
	}

	return RotationResult{Diff: diff, State: m.state, Emit: emit}
}

// State returns the current state.
func (m *RotationMachine) State() RotationState {
	return m.state
}
