package gesture

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/timeutil"
)

func newTestRecognizer(t *testing.T, opts ...Option) (*Recognizer, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(t0)
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewRecognizer(DefaultConfig(), opts...), clock
}

func statusOf(t *testing.T, r *Recognizer, name string) GestureStatus {
	t.Helper()
	for _, s := range r.Gestures() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no classifier named %q", name)
	return GestureStatus{}
}

func TestRecognizer_NoHands(t *testing.T) {
	r, _ := newTestRecognizer(t)

	res, err := r.Classify(nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Recognized: false, Name: NameNone}, res)
}

func TestRecognizer_OK(t *testing.T) {
	r, _ := newTestRecognizer(t)

	res, err := r.Classify([]detector.HandLandmarks{fist, okay})
	require.NoError(t, err)
	assert.Equal(t, Recognized(NameOK), res)
}

func TestRecognizer_ToggleFreezeUsesClock(t *testing.T) {
	r, clock := newTestRecognizer(t)
	hands := []detector.HandLandmarks{open, open}

	for i := 0; i < 20; i++ {
		res, err := r.Classify(hands)
		require.NoError(t, err)
		require.False(t, res.Recognized)
		clock.Advance(100 * time.Millisecond)
	}

	// Exactly 2s after the first frame.
	res, err := r.Classify(hands)
	require.NoError(t, err)
	assert.False(t, res.Recognized)

	clock.Advance(time.Millisecond)
	res, err = r.Classify(hands)
	require.NoError(t, err)
	assert.Equal(t, Recognized(NameToggleFreeze), res)
}

func TestRecognizer_SwitchContent(t *testing.T) {
	r, clock := newTestRecognizer(t)

	_, err := r.Classify([]detector.HandLandmarks{fist, open})
	require.NoError(t, err)
	clock.Advance(2100 * time.Millisecond)

	res, err := r.Classify([]detector.HandLandmarks{fist, open})
	require.NoError(t, err)
	assert.Equal(t, Recognized(NameSwitchContentNext), res)
}

func TestRecognizer_PriorityStillAdvancesState(t *testing.T) {
	r, _ := newTestRecognizer(t)

	// Two ok signs are also two open hands.
	res, err := r.ClassifyFrame(frame(0, okay, okay))
	require.NoError(t, err)
	assert.Equal(t, Recognized(NameOK), res)
	assert.Equal(t, PhaseTiming, statusOf(t, r, NameToggleFreeze).Phase,
		"toggle_freeze must see the frame even though ok won")

	res, err = r.ClassifyFrame(frame(2100, okay, okay))
	require.NoError(t, err)
	assert.Equal(t, Recognized(NameOK), res, "ok outranks toggle_freeze")
	assert.Equal(t, PhaseIdle, statusOf(t, r, NameToggleFreeze).Phase,
		"toggle_freeze fired and reset behind ok")
}

func TestRecognizer_CustomPriority(t *testing.T) {
	cfg := DefaultConfig()
	r := NewRecognizer(cfg, WithClassifiers(
		NewToggleFreezeClassifier(cfg),
		NewOKClassifier(cfg),
	))

	_, err := r.ClassifyFrame(frame(0, okay, okay))
	require.NoError(t, err)
	res, err := r.ClassifyFrame(frame(2100, okay, okay))
	require.NoError(t, err)
	assert.Equal(t, Recognized(NameToggleFreeze), res)
}

func TestRecognizer_InvalidInput(t *testing.T) {
	r, _ := newTestRecognizer(t)
	_, err := r.ClassifyFrame(frame(0, open, open))
	require.NoError(t, err)
	before := r.Gestures()

	bad := open
	bad.Points[detector.IndexTip].X = math.NaN()

	res, err := r.ClassifyFrame(frame(500, open, bad))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.True(t, errors.Is(err, detector.ErrInvalidLandmarks))
	assert.Contains(t, err.Error(), "hand 1")
	assert.False(t, res.Recognized)

	if diff := cmp.Diff(before, r.Gestures()); diff != "" {
		t.Errorf("rejected frame changed state (-before +after):\n%s", diff)
	}
}

func TestRecognizer_EmptySnapshots(t *testing.T) {
	t.Run("toggle_freeze tolerates five", func(t *testing.T) {
		r, _ := newTestRecognizer(t)
		_, err := r.ClassifyFrame(frame(0, open, open))
		require.NoError(t, err)

		for i := 1; i <= 5; i++ {
			res, err := r.ClassifyFrame(frame(i * 100))
			require.NoError(t, err)
			require.False(t, res.Recognized)
		}
		s := statusOf(t, r, NameToggleFreeze)
		assert.Equal(t, PhaseTiming, s.Phase)
		assert.Equal(t, 5, s.DropoutCount)

		_, err = r.ClassifyFrame(frame(600))
		require.NoError(t, err)
		assert.Equal(t, PhaseIdle, statusOf(t, r, NameToggleFreeze).Phase)
	})

	t.Run("switch_content resets at once", func(t *testing.T) {
		r, _ := newTestRecognizer(t)
		_, err := r.ClassifyFrame(frame(0, open))
		require.NoError(t, err)
		require.Equal(t, PhaseTiming, statusOf(t, r, "switch_content").Phase)

		_, err = r.ClassifyFrame(frame(100))
		require.NoError(t, err)
		assert.Equal(t, PhaseIdle, statusOf(t, r, "switch_content").Phase)
	})

	t.Run("idle recognizer stays idle", func(t *testing.T) {
		r, _ := newTestRecognizer(t)
		for i := 0; i < 10; i++ {
			res, err := r.ClassifyFrame(frame(i * 100))
			require.NoError(t, err)
			require.Equal(t, NotRecognized(), res)
		}
		for _, s := range r.Gestures() {
			assert.Equal(t, PhaseIdle, s.Phase, s.Name)
		}
	})
}

func TestRecognizer_Dropout(t *testing.T) {
	r, _ := newTestRecognizer(t)
	_, err := r.ClassifyFrame(frame(0, open, open))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		r.Dropout()
	}
	assert.Equal(t, PhaseTiming, statusOf(t, r, NameToggleFreeze).Phase)

	r.Dropout()
	assert.Equal(t, PhaseIdle, statusOf(t, r, NameToggleFreeze).Phase)
}

func TestRecognizer_Reset(t *testing.T) {
	r, _ := newTestRecognizer(t)
	_, err := r.ClassifyFrame(frame(0, open, open))
	require.NoError(t, err)

	r.Reset()
	for _, s := range r.Gestures() {
		assert.Equal(t, PhaseIdle, s.Phase, s.Name)
	}
}

func TestRecognizer_Gestures(t *testing.T) {
	r, clock := newTestRecognizer(t)
	_, err := r.Classify([]detector.HandLandmarks{open, open})
	require.NoError(t, err)
	clock.Advance(500 * time.Millisecond)

	want := []GestureStatus{
		{Name: NameOK, Phase: PhaseIdle},
		{
			Name:     NameToggleFreeze,
			Temporal: true,
			Phase:    PhaseTiming,
			Elapsed:  500 * time.Millisecond,
			Duration: DefaultDuration,
		},
		{
			Name:     "switch_content",
			Temporal: true,
			Phase:    PhaseIdle,
			Duration: DefaultDuration,
		},
	}
	if diff := cmp.Diff(want, r.Gestures()); diff != "" {
		t.Errorf("Gestures() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecognizer_LogsRecognition(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r, _ := newTestRecognizer(t, WithLogger(logger))

	_, err := r.ClassifyFrame(frame(0, okay, okay))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "component=recognizer")
	assert.Contains(t, out, "gesture recognized")
	assert.Contains(t, out, "gesture=ok")
	assert.Contains(t, out, "timing started")
}
