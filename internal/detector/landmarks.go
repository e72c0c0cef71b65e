// Package detector provides hand detection interfaces and landmark types for gesture recognition.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by the tracker.
const (
	HandLeft  = "Left"
	HandRight = "Right"
)

// ErrInvalidLandmarks is returned when a hand's landmark data is malformed.
var ErrInvalidLandmarks = errors.New("invalid landmarks")

// Point3D represents a 3D point in normalized image space.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks of one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left", "Right" or empty when unknown
	Score      float64               `json:"score"`
}

// Validate reports whether the hand can be classified. Every point needs
// finite x and y, and handedness must be empty or one of the known labels.
func (h *HandLandmarks) Validate() error {
	if h == nil {
		return fmt.Errorf("%w: nil hand", ErrInvalidLandmarks)
	}
	for i, p := range h.Points {
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("%w: point %d has non-finite coordinates", ErrInvalidLandmarks, i)
		}
	}
	switch h.Handedness {
	case "", HandLeft, HandRight:
	default:
		return fmt.Errorf("%w: handedness must be %q or %q, got %q", ErrInvalidLandmarks, HandLeft, HandRight, h.Handedness)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// WireHand is the JSON shape hands travel in, from the MediaPipe service,
// the HTTP API and recorded replay files alike. Points is a slice so a short
// or overlong list can be rejected instead of silently zero-filled.
type WireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// ToLandmarks converts a wire hand into HandLandmarks and validates it.
func (w WireHand) ToLandmarks() (HandLandmarks, error) {
	var lm HandLandmarks
	if len(w.Points) != NumLandmarks {
		return lm, fmt.Errorf("%w: expected %d points, got %d", ErrInvalidLandmarks, NumLandmarks, len(w.Points))
	}

	copy(lm.Points[:], w.Points)
	lm.Handedness = w.Handedness
	lm.Score = w.Score

	if err := lm.Validate(); err != nil {
		return HandLandmarks{}, err
	}
	return lm, nil
}

// FromWire converts a list of wire hands, preserving detection order.
func FromWire(hands []WireHand) ([]HandLandmarks, error) {
	result := make([]HandLandmarks, 0, len(hands))
	for i, w := range hands {
		lm, err := w.ToLandmarks()
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", i, err)
		}
		result = append(result, lm)
	}
	return result, nil
}

// ToWire converts landmarks back into their wire form.
func ToWire(hands []HandLandmarks) []WireHand {
	result := make([]WireHand, len(hands))
	for i, h := range hands {
		points := make([]Point3D, NumLandmarks)
		copy(points, h.Points[:])
		result[i] = WireHand{Points: points, Handedness: h.Handedness, Score: h.Score}
	}
	return result
}
