package gesture

// Classifier evaluates one frame. Classify must not retain f.Hands beyond
// the call except through its own TemporalState.
type Classifier interface {
	Name() string
	Classify(f Frame) Result
}

// TemporalClassifier is a Classifier that owns a TemporalState.
type TemporalClassifier interface {
	Classifier
	State() *TemporalState
}

// OKClassifier recognizes the "ok" sign: thumb and index tips touching
// on any hand in the frame.
type OKClassifier struct {
	threshold float64
}

// NewOKClassifier creates an OKClassifier using cfg.TouchThreshold.
func NewOKClassifier(cfg Config) *OKClassifier {
	return &OKClassifier{threshold: cfg.TouchThreshold}
}

// Name returns NameOK.
func (c *OKClassifier) Name() string { return NameOK }

// Classify returns NameOK if any hand has thumb and index touching.
func (c *OKClassifier) Classify(f Frame) Result {
	for i := range f.Hands {
		if ThumbIndexTouching(&f.Hands[i], c.threshold) {
			return Recognized(NameOK)
		}
	}
	return NotRecognized()
}
