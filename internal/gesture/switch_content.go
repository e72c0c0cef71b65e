package gesture

// SwitchContentClassifier fires when exactly one of the left or right
// hands is held open for longer than the configured duration. A held left
// hand reports NameSwitchContentPrevious, a held right hand
// NameSwitchContentNext.
//
// Unlike ToggleFreezeClassifier it clears its dropout count on every
// frame, so a missing hand resets the timer immediately.
type SwitchContentClassifier struct {
	state     *TemporalState
	threshold float64
	order     HandOrder
}

// NewSwitchContentClassifier creates the classifier with its own TemporalState.
func NewSwitchContentClassifier(cfg Config) *SwitchContentClassifier {
	return &SwitchContentClassifier{
		state:     NewTemporalState(cfg.Duration, cfg.MaxDropoutFrames),
		threshold: cfg.ExtendedThreshold,
		order:     cfg.HandOrder,
	}
}

// Name returns the family name shared by both directions.
func (c *SwitchContentClassifier) Name() string { return NameSwitchContent }

// State returns the classifier's TemporalState.
func (c *SwitchContentClassifier) State() *TemporalState { return c.state }

// Classify advances the timer with f and reports a direction once it expires.
func (c *SwitchContentClassifier) Classify(f Frame) Result {
	s := c.state
	s.DropoutCount = 0

	left, right := leftRight(f.Hands, c.order)
	leftOpen := left != nil && AllFingersExtended(left, c.threshold)
	rightOpen := right != nil && AllFingersExtended(right, c.threshold)

	// Both open belongs to toggle_freeze; neither open is no gesture.
	if leftOpen == rightOpen {
		s.Reset()
		return NotRecognized()
	}

	s.Observe(f.Time, f.Hands)
	if !s.Expired(f.Time) {
		return NotRecognized()
	}

	s.Reset()
	if leftOpen {
		return Recognized(NameSwitchContentPrevious)
	}
	return Recognized(NameSwitchContentNext)
}
