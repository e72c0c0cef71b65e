package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector returns canned hands, or a canned error, for every frame.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands replaces the hands returned from now on.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError makes Detect fail with err. A nil err restores SetHands.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Labeled returns a copy of h with the given handedness label.
func Labeled(h HandLandmarks, handedness string) HandLandmarks {
	h.Handedness = handedness
	return h
}

// Fixture poses are right hands in image coordinates: y grows downward
// and the wrist sits at (0.5, 0.8).
var fixtureWrist = Point3D{X: 0.5, Y: 0.8}

// joints writes four consecutive landmarks starting at first. Finger
// chains run base to tip.
func joints(h *HandLandmarks, first int, chain [4]Point3D) {
	copy(h.Points[first:first+4], chain[:])
}

func fixture(score float64) HandLandmarks {
	h := HandLandmarks{Handedness: HandRight, Score: score}
	h.Points[Wrist] = fixtureWrist
	return h
}

// curled index through pinky, shared by the closed poses.
var (
	curledIndex  = [4]Point3D{{0.55, 0.70, -0.02}, {0.55, 0.68, -0.05}, {0.52, 0.70, -0.04}, {0.50, 0.72, -0.02}}
	curledMiddle = [4]Point3D{{0.50, 0.68, -0.02}, {0.50, 0.66, -0.05}, {0.47, 0.68, -0.04}, {0.45, 0.70, -0.02}}
	curledRing   = [4]Point3D{{0.45, 0.70, -0.02}, {0.45, 0.68, -0.05}, {0.42, 0.70, -0.04}, {0.40, 0.72, -0.02}}
	curledPinky  = [4]Point3D{{0.40, 0.72, -0.02}, {0.40, 0.70, -0.05}, {0.37, 0.72, -0.04}, {0.35, 0.74, -0.02}}
)

func curlFingers(h *HandLandmarks) {
	joints(h, IndexMCP, curledIndex)
	joints(h, MiddleMCP, curledMiddle)
	joints(h, RingMCP, curledRing)
	joints(h, PinkyMCP, curledPinky)
}

// ThumbsUpLandmarks is a closed hand with only the thumb raised.
func ThumbsUpLandmarks() HandLandmarks {
	h := fixture(0.95)
	joints(&h, ThumbCMC, [4]Point3D{{0.55, 0.75, 0}, {0.58, 0.65, 0}, {0.58, 0.50, 0}, {0.58, 0.35, 0}})
	curlFingers(&h)
	return h
}

// FistLandmarks is a closed hand. The thumb folds across the palm with its
// tip about 0.04 from the CMC joint and 0.08 from the index tip.
func FistLandmarks() HandLandmarks {
	h := fixture(0.93)
	joints(&h, ThumbCMC, [4]Point3D{{0.55, 0.75, 0}, {0.57, 0.72, -0.01}, {0.58, 0.71, -0.02}, {0.58, 0.72, -0.03}})
	curlFingers(&h)
	return h
}

// OpenPalmLandmarks is a hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	h := fixture(0.95)
	joints(&h, ThumbCMC, [4]Point3D{{0.55, 0.75, 0.02}, {0.62, 0.70, 0.03}, {0.68, 0.65, 0.03}, {0.73, 0.60, 0.03}})
	joints(&h, IndexMCP, [4]Point3D{{0.55, 0.68, 0}, {0.57, 0.55, 0}, {0.58, 0.45, 0}, {0.58, 0.35, 0}})
	joints(&h, MiddleMCP, [4]Point3D{{0.50, 0.66, 0}, {0.50, 0.52, 0}, {0.50, 0.40, 0}, {0.50, 0.28, 0}})
	joints(&h, RingMCP, [4]Point3D{{0.45, 0.68, 0}, {0.43, 0.55, 0}, {0.42, 0.45, 0}, {0.42, 0.35, 0}})
	joints(&h, PinkyMCP, [4]Point3D{{0.40, 0.70, 0}, {0.37, 0.60, 0}, {0.35, 0.50, 0}, {0.34, 0.42, 0}})
	return h
}

// OKSignLandmarks is an open palm with thumb and index tips pinched
// together. Middle, ring and pinky stay extended, so the hand also
// counts as open.
func OKSignLandmarks() HandLandmarks {
	h := OpenPalmLandmarks()
	h.Points[ThumbIP] = Point3D{X: 0.64, Y: 0.58, Z: 0.02}
	h.Points[ThumbTip] = Point3D{X: 0.60, Y: 0.52, Z: 0.01}
	joints(&h, IndexMCP, [4]Point3D{h.Points[IndexMCP], {0.58, 0.58, 0}, {0.60, 0.55, 0}, {0.61, 0.53, 0.01}})
	return h
}
