package gesture

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// Timing defaults for multi-frame gestures.
const (
	DefaultDuration         = 2 * time.Second
	DefaultMaxDropoutFrames = 5

	// MaxObservedFrames caps the snapshots kept while a gesture is timing.
	MaxObservedFrames = 64
)

// Phase is the coarse state of a TemporalState.
type Phase string

const (
	PhaseIdle   Phase = "idle"
	PhaseTiming Phase = "timing"
)

// TemporalState tracks whether a qualifying pose has been sustained.
// Each multi-frame classifier owns exactly one.
//
// Invariants: Active implies TimerStart is set; a reset clears the timer,
// the dropout count and Observed together.
type TemporalState struct {
	// TimerStart is when the current qualifying run began. Zero when idle.
	TimerStart time.Time
	// Active is true while a qualifying run is being timed.
	Active bool
	// DropoutCount counts consecutive frames without a usable observation.
	DropoutCount int

	// Duration is how long the pose must be held.
	Duration time.Duration
	// MaxDropoutFrames is the dropout tolerance before a forced reset.
	MaxDropoutFrames int

	// Observed holds the qualifying snapshots of the current run, oldest
	// first, capped at MaxObservedFrames.
	Observed [][]detector.HandLandmarks
}

// NewTemporalState returns an idle state with the given timing.
func NewTemporalState(duration time.Duration, maxDropoutFrames int) *TemporalState {
	return &TemporalState{
		Duration:         duration,
		MaxDropoutFrames: maxDropoutFrames,
	}
}

// Reset returns the state to idle.
func (s *TemporalState) Reset() {
	s.TimerStart = time.Time{}
	s.Active = false
	s.DropoutCount = 0
	s.Observed = nil
}

// Dropout records a frame without a usable observation. Once the count
// exceeds MaxDropoutFrames the state is reset and Dropout returns true.
func (s *TemporalState) Dropout() bool {
	s.DropoutCount++
	if s.DropoutCount > s.MaxDropoutFrames {
		s.Reset()
		return true
	}
	return false
}

// Observe records a qualifying snapshot at now, starting the timer if the
// state is idle. It returns true when this call started the timer.
func (s *TemporalState) Observe(now time.Time, hands []detector.HandLandmarks) bool {
	started := false
	if !s.Active {
		s.TimerStart = now
		s.Active = true
		started = true
	}
	s.DropoutCount = 0

	if len(s.Observed) >= MaxObservedFrames {
		s.Observed = append(s.Observed[:0], s.Observed[1:]...)
	}
	s.Observed = append(s.Observed, append([]detector.HandLandmarks(nil), hands...))

	return started
}

// Elapsed returns how long the current run has lasted at now. Zero when idle.
func (s *TemporalState) Elapsed(now time.Time) time.Duration {
	if !s.Active {
		return 0
	}
	return now.Sub(s.TimerStart)
}

// Expired reports whether the current run has lasted strictly longer than Duration.
func (s *TemporalState) Expired(now time.Time) bool {
	return s.Active && s.Elapsed(now) > s.Duration
}

// Phase returns PhaseTiming while a run is being timed, PhaseIdle otherwise.
func (s *TemporalState) Phase() Phase {
	if s.Active {
		return PhaseTiming
	}
	return PhaseIdle
}
