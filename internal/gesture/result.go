// Package gesture recognizes hand gestures from per-frame landmark snapshots.
//
// Single-frame classifiers look at one snapshot. Multi-frame classifiers
// keep a TemporalState and fire only after a pose has been held for a
// configured duration. A Recognizer evaluates them in priority order.
package gesture

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// Gesture names reported in a Result.
const (
	NameOK                    = "ok"
	NameToggleFreeze          = "toggle_freeze"
	NameSwitchContentPrevious = "switch_content_previous"
	NameSwitchContentNext     = "switch_content_next"

	// NameSwitchContent names the classifier that reports both
	// switch_content results.
	NameSwitchContent = "switch_content"

	// NameNone is the sentinel name of an unrecognized result.
	NameNone = "No gesture recognized"
)

// Names returns every gesture name a default Recognizer can report.
func Names() []string {
	return []string{NameOK, NameToggleFreeze, NameSwitchContentPrevious, NameSwitchContentNext}
}

// IsKnownName reports whether name is one of Names.
func IsKnownName(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Result is the outcome of classifying one frame.
type Result struct {
	Recognized bool   `json:"recognized"`
	Name       string `json:"name"`
}

// NotRecognized returns the canonical unrecognized result.
func NotRecognized() Result {
	return Result{Name: NameNone}
}

// Recognized returns a positive result for the named gesture.
func Recognized(name string) Result {
	return Result{Recognized: true, Name: name}
}

// Frame is one snapshot of detected hands together with the time it was observed.
type Frame struct {
	Time  time.Time
	Hands []detector.HandLandmarks
}
