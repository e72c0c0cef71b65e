package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// HandOrder selects how switch_content decides which hand is left and which is right.
type HandOrder string

const (
	// HandOrderDetection treats the first detected hand as left and the
	// second as right. Detection order is not stable across frames.
	HandOrderDetection HandOrder = "detection"

	// HandOrderHandedness uses the tracker's handedness labels. It falls
	// back to detection order when labels are missing or repeated.
	HandOrderHandedness HandOrder = "handedness"
)

// ParseHandOrder parses a HandOrder name. The empty string selects detection order.
func ParseHandOrder(s string) (HandOrder, error) {
	switch HandOrder(s) {
	case "", HandOrderDetection:
		return HandOrderDetection, nil
	case HandOrderHandedness:
		return HandOrderHandedness, nil
	}
	return "", fmt.Errorf("unknown hand order %q", s)
}

// leftRight picks the left and right hand of a snapshot. Either may be nil.
func leftRight(hands []detector.HandLandmarks, order HandOrder) (left, right *detector.HandLandmarks) {
	if order == HandOrderHandedness {
		if l, r, ok := byHandedness(hands); ok {
			return l, r
		}
	}

	if len(hands) >= 1 {
		left = &hands[0]
	}
	if len(hands) >= 2 {
		right = &hands[1]
	}
	return left, right
}

// byHandedness assigns hands by label. It succeeds only when every hand
// carries a label and no label repeats.
func byHandedness(hands []detector.HandLandmarks) (left, right *detector.HandLandmarks, ok bool) {
	if len(hands) == 0 {
		return nil, nil, false
	}
	for i := range hands {
		switch hands[i].Handedness {
		case detector.HandLeft:
			if left != nil {
				return nil, nil, false
			}
			left = &hands[i]
		case detector.HandRight:
			if right != nil {
				return nil, nil, false
			}
			right = &hands[i]
		default:
			return nil, nil, false
		}
	}
	return left, right, true
}
