package gesture

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/timeutil"
)

// ErrInvalidInput is returned when a snapshot contains malformed landmarks.
var ErrInvalidInput = errors.New("invalid input")

// Recognizer evaluates its classifiers in registration order on every
// frame and reports the first positive result.
//
// Every classifier sees every frame, even after an earlier one matched,
// so temporal state keeps advancing regardless of priority.
//
// A Recognizer is not safe for concurrent use.
type Recognizer struct {
	classifiers []Classifier
	clock       timeutil.Clock
	logger      *slog.Logger
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithClock sets the clock used to timestamp frames passed to Classify.
func WithClock(c timeutil.Clock) Option {
	return func(r *Recognizer) {
		r.clock = c
	}
}

// WithLogger sets the logger for state transitions and recognitions.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recognizer) {
		r.logger = l
	}
}

// WithClassifiers replaces the default classifiers. Order is priority.
func WithClassifiers(cs ...Classifier) Option {
	return func(r *Recognizer) {
		r.classifiers = cs
	}
}

// DefaultClassifiers returns the built-in classifiers in priority order:
// ok, toggle_freeze, switch_content.
func DefaultClassifiers(cfg Config) []Classifier {
	return []Classifier{
		NewOKClassifier(cfg),
		NewToggleFreezeClassifier(cfg),
		NewSwitchContentClassifier(cfg),
	}
}

// NewRecognizer creates a Recognizer with the default classifiers built from cfg.
func NewRecognizer(cfg Config, opts ...Option) *Recognizer {
	r := &Recognizer{
		classifiers: DefaultClassifiers(cfg),
		clock:       timeutil.RealClock{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "recognizer")
	return r
}

// Classify timestamps hands with the recognizer's clock and classifies them.
func (r *Recognizer) Classify(hands []detector.HandLandmarks) (Result, error) {
	return r.ClassifyFrame(Frame{Time: r.clock.Now(), Hands: hands})
}

// ClassifyFrame classifies a frame carrying its own timestamp. Frames must
// be supplied in time order.
//
// Malformed hands are rejected with ErrInvalidInput before any state is touched.
func (r *Recognizer) ClassifyFrame(f Frame) (Result, error) {
	for i := range f.Hands {
		if err := f.Hands[i].Validate(); err != nil {
			return NotRecognized(), fmt.Errorf("%w: hand %d: %w", ErrInvalidInput, i, err)
		}
	}

	result := NotRecognized()
	for _, c := range r.classifiers {
		before := phaseOf(c)
		res := c.Classify(f)
		r.logTransition(c, before, res)

		if !res.Recognized {
			continue
		}
		if result.Recognized {
			r.logger.Debug("gesture shadowed by higher priority", "gesture", res.Name, "winner", result.Name)
			continue
		}
		result = res
	}

	if result.Recognized {
		r.logger.Info("gesture recognized", "gesture", result.Name, "hands", len(f.Hands))
	}
	return result, nil
}

// Dropout records a dropout on every temporal classifier. Use it when the
// tracker produced no result at all for a frame, as opposed to zero hands.
func (r *Recognizer) Dropout() {
	for _, c := range r.classifiers {
		tc, ok := c.(TemporalClassifier)
		if !ok {
			continue
		}
		if tc.State().Dropout() {
			r.logger.Debug("reset after dropout", "gesture", tc.Name())
		}
	}
}

// Reset returns every temporal classifier to idle.
func (r *Recognizer) Reset() {
	for _, c := range r.classifiers {
		if tc, ok := c.(TemporalClassifier); ok {
			tc.State().Reset()
		}
	}
}

// GestureStatus describes one registered classifier.
type GestureStatus struct {
	Name         string        `json:"name"`
	Temporal     bool          `json:"temporal"`
	Phase        Phase         `json:"phase"`
	Elapsed      time.Duration `json:"elapsed"`
	Duration     time.Duration `json:"duration"`
	DropoutCount int           `json:"dropout_count"`
}

// Gestures reports every classifier in priority order.
func (r *Recognizer) Gestures() []GestureStatus {
	now := r.clock.Now()
	statuses := make([]GestureStatus, 0, len(r.classifiers))
	for _, c := range r.classifiers {
		status := GestureStatus{Name: c.Name(), Phase: PhaseIdle}
		if tc, ok := c.(TemporalClassifier); ok {
			s := tc.State()
			status.Temporal = true
			status.Phase = s.Phase()
			status.Elapsed = s.Elapsed(now)
			status.Duration = s.Duration
			status.DropoutCount = s.DropoutCount
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func phaseOf(c Classifier) Phase {
	if tc, ok := c.(TemporalClassifier); ok {
		return tc.State().Phase()
	}
	return PhaseIdle
}

func (r *Recognizer) logTransition(c Classifier, before Phase, res Result) {
	after := phaseOf(c)
	switch {
	case before == PhaseIdle && after == PhaseTiming:
		r.logger.Debug("timing started", "gesture", c.Name())
	case before == PhaseTiming && after == PhaseIdle && !res.Recognized:
		r.logger.Debug("timing reset", "gesture", c.Name())
	}
}
