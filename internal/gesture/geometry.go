package gesture

import (
	"gonum.org/v1/gonum/floats"

	"github.com/ayusman/mudra/internal/detector"
)

// Empirical thresholds in normalized image units. They do not scale with
// hand size.
const (
	// DefaultExtendedThreshold is the tip-to-base distance above which a finger counts as extended.
	DefaultExtendedThreshold = 0.1
	// DefaultTouchThreshold is the thumb-to-index tip distance below which the tips touch.
	DefaultTouchThreshold = 0.04
)

// Finger identifies one of the five fingers of a hand.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// Fingers lists every finger in anatomical order.
var Fingers = [...]Finger{Thumb, Index, Middle, Ring, Pinky}

// fingerJoints maps each finger to its tip and base landmarks. The thumb
// uses its CMC joint as the base, the other fingers their MCP joint.
var fingerJoints = [...]struct{ tip, base int }{
	Thumb:  {detector.ThumbTip, detector.ThumbCMC},
	Index:  {detector.IndexTip, detector.IndexMCP},
	Middle: {detector.MiddleTip, detector.MiddleMCP},
	Ring:   {detector.RingTip, detector.RingMCP},
	Pinky:  {detector.PinkyTip, detector.PinkyMCP},
}

func (f Finger) String() string {
	switch f {
	case Thumb:
		return "thumb"
	case Index:
		return "index"
	case Middle:
		return "middle"
	case Ring:
		return "ring"
	case Pinky:
		return "pinky"
	}
	return "unknown"
}

// Distance returns the Euclidean distance between two points in the image
// plane. Depth is ignored.
func Distance(a, b detector.Point3D) float64 {
	pa := [2]float64{a.X, a.Y}
	pb := [2]float64{b.X, b.Y}
	return floats.Distance(pa[:], pb[:], 2)
}

// FingersExtended reports, per finger, whether the tip lies farther than
// threshold from the finger's base. A distance equal to threshold is not extended.
func FingersExtended(hand *detector.HandLandmarks, threshold float64) map[Finger]bool {
	extended := make(map[Finger]bool, len(Fingers))
	for _, f := range Fingers {
		extended[f] = fingerExtended(hand, f, threshold)
	}
	return extended
}

// AllFingersExtended reports whether every finger of hand is extended,
// i.e. the hand is open.
func AllFingersExtended(hand *detector.HandLandmarks, threshold float64) bool {
	for _, f := range Fingers {
		if !fingerExtended(hand, f, threshold) {
			return false
		}
	}
	return true
}

func fingerExtended(hand *detector.HandLandmarks, f Finger, threshold float64) bool {
	j := fingerJoints[f]
	return Distance(hand.Points[j.tip], hand.Points[j.base]) > threshold
}

// ThumbIndexTouching reports whether the thumb and index tips are closer than threshold.
func ThumbIndexTouching(hand *detector.HandLandmarks, threshold float64) bool {
	return Distance(hand.Points[detector.ThumbTip], hand.Points[detector.IndexTip]) < threshold
}
