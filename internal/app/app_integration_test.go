package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

func TestApp_Pipeline_ToggleFreeze(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frame := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.SetFPS(50)

	det := detector.NewMockDetector()
	det.SetHands(openHands())

	cfg := gesture.DefaultConfig()
	cfg.Duration = 200 * time.Millisecond

	a := New(Config{Recognition: cfg, Store: newTestStore(t)})
	a.SetCamera(cam)
	a.SetDetector(det)

	events, unsubscribe := a.Subscribe()
	defer unsubscribe()

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	select {
	case ev := <-events:
		if ev.Gesture != gesture.NameToggleFreeze {
			t.Errorf("gesture = %q, want %q", ev.Gesture, gesture.NameToggleFreeze)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("pipeline did not recognize toggle_freeze")
	}

	if det.Calls() == 0 {
		t.Error("detector was never called")
	}
}

func TestApp_Pipeline_DetectorErrorsAreDropouts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frame := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	defer frame.Close()

	frames := make([]*gocv.Mat, 5)
	for i := range frames {
		frames[i] = &frame
	}
	cam := capture.NewMockCamera(frames, false)
	cam.SetFPS(100)

	det := detector.NewMockDetector()
	det.SetError(errors.New("tracker lost"))

	a := New(Config{Recognition: gesture.DefaultConfig()})
	a.SetCamera(cam)
	a.SetDetector(det)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-a.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("pipeline did not stop at end of stream")
	}
	a.Stop()

	if got := a.Stats().Dropouts; got != 5 {
		t.Errorf("Dropouts = %d, want 5", got)
	}
	if a.Stats().Frames != 0 {
		t.Errorf("Frames = %d, failed detections are not classified", a.Stats().Frames)
	}
}

func TestApp_Pipeline_PausedSkipsFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frame := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.SetFPS(100)
	det := detector.NewMockDetector()

	a := New(Config{Recognition: gesture.DefaultConfig()})
	a.SetCamera(cam)
	a.SetDetector(det)
	a.SetEnabled(false)

	ctx, cancel := context.WithCancel(context.Background())
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-a.Done()
	a.Stop()

	if cam.Reads() != 0 {
		t.Errorf("paused pipeline read %d frames", cam.Reads())
	}
}
