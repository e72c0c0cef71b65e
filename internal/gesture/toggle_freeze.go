package gesture

// ToggleFreezeClassifier fires when two or more hands are held fully open
// for longer than the configured duration.
//
// Frames with fewer than two hands count as dropouts, so a brief tracking
// loss does not interrupt the timer. A frame where the hands are present
// but not all open resets the timer immediately.
type ToggleFreezeClassifier struct {
	state     *TemporalState
	threshold float64
}

// NewToggleFreezeClassifier creates the classifier with its own TemporalState.
func NewToggleFreezeClassifier(cfg Config) *ToggleFreezeClassifier {
	return &ToggleFreezeClassifier{
		state:     NewTemporalState(cfg.Duration, cfg.MaxDropoutFrames),
		threshold: cfg.ExtendedThreshold,
	}
}

// Name returns NameToggleFreeze.
func (c *ToggleFreezeClassifier) Name() string { return NameToggleFreeze }

// State returns the classifier's TemporalState.
func (c *ToggleFreezeClassifier) State() *TemporalState { return c.state }

// Classify advances the timer with f and reports NameToggleFreeze once it expires.
func (c *ToggleFreezeClassifier) Classify(f Frame) Result {
	s := c.state

	if len(f.Hands) < 2 {
		s.Dropout()
		return NotRecognized()
	}
	s.DropoutCount = 0

	for i := range f.Hands {
		if !AllFingersExtended(&f.Hands[i], c.threshold) {
			s.Reset()
			return NotRecognized()
		}
	}

	s.Observe(f.Time, f.Hands)
	if s.Expired(f.Time) {
		s.Reset()
		return Recognized(NameToggleFreeze)
	}
	return NotRecognized()
}
