package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// SetCamera sets the frame source used by Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector sets the hand detector used by Start.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Start opens the camera and runs the frame pipeline until ctx is done,
// Stop is called, or the camera reaches the end of its stream.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}
	if a.camera == nil || a.detector == nil {
		return ErrNoSource
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.runPipeline(ctx, a.camera, a.detector, a.done)

	a.logger.Info("pipeline started", "fps", a.camera.FPS())
	return nil
}

// Stop halts the pipeline and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	cam, det := a.camera, a.detector
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	if err := cam.Close(); err != nil {
		a.logger.Warn("error closing camera", "err", err)
	}
	if err := det.Close(); err != nil {
		a.logger.Warn("error closing detector", "err", err)
	}

	a.logger.Info("pipeline stopped")
}

// Done returns a channel closed when the running pipeline exits, or nil
// if none is running.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// runPipeline reads one frame per tick. A frame the detector fails on is a
// dropout; a frame with zero hands is classified as an empty snapshot.
func (a *App) runPipeline(ctx context.Context, cam capture.Camera, det detector.Detector, done chan struct{}) {
	defer close(done)

	fps := cam.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !a.IsEnabled() {
			continue
		}

		frame, err := cam.ReadFrame()
		if errors.Is(err, capture.ErrEndOfStream) {
			a.logger.Info("camera stream ended")
			return
		}
		if err != nil {
			a.logger.Warn("error reading frame", "err", err)
			a.MarkDropout()
			continue
		}

		hands, err := det.Detect(frame)
		frame.Close()
		if err != nil {
			a.logger.Warn("error detecting hands", "err", err)
			a.MarkDropout()
			continue
		}

		if _, err := a.Process(ctx, hands); err != nil {
			if errors.Is(err, gesture.ErrInvalidInput) {
				a.MarkDropout()
			}
			a.logger.Warn("frame rejected", "err", err)
		}
	}
}
