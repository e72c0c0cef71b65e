// Package app wires the recognizer to its inputs and outputs: camera
// frames or HTTP snapshots go in; journal entries, plugin actions and
// subscriber notifications come out.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/timeutil"
)

// subscriberBuffer is the per-subscriber event backlog. Slow subscribers
// lose events beyond it.
const subscriberBuffer = 16

// ErrNoSource is returned by Start when no camera or detector is set.
var ErrNoSource = errors.New("camera and detector are required")

// Config holds the application's collaborators. Only Recognition is required.
type Config struct {
	Recognition gesture.Config

	// Store journals events and holds action bindings. Optional.
	Store *store.Store
	// Plugins resolves bound actions. Optional.
	Plugins *plugin.Manager
	// Executor runs bound actions. Defaults to plugin.DefaultTimeout.
	Executor *plugin.Executor

	Clock  timeutil.Clock
	Logger *slog.Logger
}

// Stats counts what the app has processed since it was created.
type Stats struct {
	Frames     uint64 `json:"frames"`
	Dropouts   uint64 `json:"dropouts"`
	Recognized uint64 `json:"recognized"`
	Actions    uint64 `json:"actions"`
}

// App serializes access to one Recognizer and fans its results out.
type App struct {
	cfg    Config
	clock  timeutil.Clock
	logger *slog.Logger

	recMu      sync.Mutex
	recognizer *gesture.Recognizer

	mu       sync.RWMutex
	enabled  bool
	camera   capture.Camera
	detector detector.Detector
	cancel   context.CancelFunc
	done     chan struct{}

	subMu     sync.Mutex
	subs      map[chan store.Event]struct{}
	callbacks []func(store.Event)

	frames     atomic.Uint64
	dropouts   atomic.Uint64
	recognized atomic.Uint64
	actions    atomic.Uint64
}

// New creates an App. Recognition starts enabled.
func New(cfg Config) *App {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Executor == nil {
		cfg.Executor = plugin.NewExecutor(plugin.DefaultTimeout)
	}

	return &App{
		cfg:    cfg,
		clock:  cfg.Clock,
		logger: cfg.Logger.With("component", "app"),
		recognizer: gesture.NewRecognizer(cfg.Recognition,
			gesture.WithClock(cfg.Clock),
			gesture.WithLogger(cfg.Logger),
		),
		enabled: true,
		subs:    make(map[chan store.Event]struct{}),
	}
}

// Process classifies a snapshot observed now.
func (a *App) Process(ctx context.Context, hands []detector.HandLandmarks) (gesture.Result, error) {
	return a.ProcessFrame(ctx, gesture.Frame{Time: a.clock.Now(), Hands: hands})
}

// ProcessFrame classifies a timestamped snapshot. A recognized gesture is
// journaled, published to subscribers and, if bound, executed before
// ProcessFrame returns.
func (a *App) ProcessFrame(ctx context.Context, f gesture.Frame) (gesture.Result, error) {
	a.frames.Add(1)

	a.recMu.Lock()
	res, err := a.recognizer.ClassifyFrame(f)
	a.recMu.Unlock()

	if err != nil || !res.Recognized {
		return res, err
	}

	a.recognized.Add(1)
	a.dispatch(ctx, store.Event{
		Gesture:      res.Name,
		Hands:        len(f.Hands),
		RecognizedAt: f.Time,
	})
	return res, nil
}

// MarkDropout tells the recognizer that a frame produced no tracking
// result at all.
func (a *App) MarkDropout() {
	a.dropouts.Add(1)

	a.recMu.Lock()
	defer a.recMu.Unlock()
	a.recognizer.Dropout()
}

// Gestures reports the recognizer's classifiers and their timing state.
func (a *App) Gestures() []gesture.GestureStatus {
	a.recMu.Lock()
	defer a.recMu.Unlock()
	return a.recognizer.Gestures()
}

// Reset returns every multi-frame gesture to idle.
func (a *App) Reset() {
	a.recMu.Lock()
	defer a.recMu.Unlock()
	a.recognizer.Reset()
}

// Stats returns a snapshot of the processing counters.
func (a *App) Stats() Stats {
	return Stats{
		Frames:     a.frames.Load(),
		Dropouts:   a.dropouts.Load(),
		Recognized: a.recognized.Load(),
		Actions:    a.actions.Load(),
	}
}

// SetEnabled pauses or resumes the camera pipeline. Pausing resets the
// recognizer so a half-held gesture cannot fire on resume.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if changed {
		if !enabled {
			a.Reset()
		}
		a.logger.Info("recognition toggled", "enabled", enabled)
	}
}

// IsEnabled returns whether the camera pipeline is processing frames.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnGesture registers fn to run synchronously for every recognized gesture.
func (a *App) OnGesture(fn func(store.Event)) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	a.callbacks = append(a.callbacks, fn)
}

// Subscribe returns a channel of recognized gestures and a function that
// unsubscribes and closes it.
func (a *App) Subscribe() (<-chan store.Event, func()) {
	ch := make(chan store.Event, subscriberBuffer)

	a.subMu.Lock()
	a.subs[ch] = struct{}{}
	a.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, ch)
			a.subMu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of open subscriptions.
func (a *App) Subscribers() int {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	return len(a.subs)
}

// Store returns the configured store, or nil.
func (a *App) Store() *store.Store {
	return a.cfg.Store
}

// Plugins returns the configured plugin manager, or nil.
func (a *App) Plugins() *plugin.Manager {
	return a.cfg.Plugins
}

func (a *App) dispatch(ctx context.Context, ev store.Event) {
	if a.cfg.Store != nil {
		if err := a.cfg.Store.Events().Record(&ev); err != nil {
			a.logger.Error("failed to journal event", "gesture", ev.Gesture, "err", err)
		}
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	a.subMu.Lock()
	callbacks := append([]func(store.Event)(nil), a.callbacks...)
	for ch := range a.subs {
		select {
		case ch <- ev:
		default:
			a.logger.Warn("subscriber is full, dropping event", "gesture", ev.Gesture)
		}
	}
	a.subMu.Unlock()

	for _, fn := range callbacks {
		fn(ev)
	}

	a.executeAction(ctx, ev)
}

// executeAction runs the plugin action bound to ev.Gesture, if any.
// Failures are logged; they never interrupt recognition.
func (a *App) executeAction(ctx context.Context, ev store.Event) {
	if a.cfg.Store == nil {
		return
	}

	binding, err := a.cfg.Store.Actions().GetByGesture(ev.Gesture)
	if err != nil {
		a.logger.Error("failed to look up action", "gesture", ev.Gesture, "err", err)
		return
	}
	if binding == nil || !binding.Enabled {
		a.logger.Debug("no enabled action bound", "gesture", ev.Gesture)
		return
	}

	log := a.logger.With("gesture", ev.Gesture, "plugin", binding.PluginName, "action", binding.ActionName)

	if a.cfg.Plugins == nil {
		log.Warn("action bound but plugins are not configured")
		return
	}
	p, err := a.cfg.Plugins.Get(binding.PluginName)
	if err != nil {
		log.Warn("bound plugin unavailable", "err", err)
		return
	}

	start := time.Now()
	resp, err := a.cfg.Executor.Execute(ctx, p, &plugin.Request{
		Action:  binding.ActionName,
		Gesture: ev.Gesture,
		Config:  binding.Config,
	})
	a.actions.Add(1)

	switch {
	case err != nil:
		log.Error("plugin execution failed", "err", err)
	case !resp.Success:
		log.Warn("plugin reported failure", "error", resp.Error)
	default:
		log.Info("action executed", "took", time.Since(start))
	}
}
