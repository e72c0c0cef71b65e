// Package tray provides a system tray menu for mudra: it shows the last
// recognized gesture and pauses or resumes the camera pipeline.
package tray

import (
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/store"
)

// Controller is the part of the application the tray drives.
type Controller interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
	Reset()
	OnGesture(fn func(store.Event))
}

// Tray represents the system tray application.
type Tray struct {
	ctrl       Controller
	onSettings func()
	onQuit     func()
	mu         sync.RWMutex

	last     string
	lastTime time.Time

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a Tray for ctrl and registers for its gestures.
func New(ctrl Controller) *Tray {
	t := &Tray{ctrl: ctrl}
	ctrl.OnGesture(func(ev store.Event) {
		t.SetLastGesture(ev.Gesture, ev.RecognizedAt)
	})
	return t
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application. It must be called from the
// main goroutine and blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops the tray event loop.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra gesture recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.ctrl.IsEnabled()), "Pause or resume gesture recognition")
	systray.AddSeparator()
	t.menuLastGesture = systray.AddMenuItem(lastGestureTitle(t.last, t.lastTime), "Last recognized gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()

	menuReset := systray.AddMenuItem("Reset gestures", "Abandon any gesture being held")
	systray.AddSeparator()
	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuReset.ClickedCh:
				t.ctrl.Reset()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// handleToggle flips the controller's enabled state and returns the new one.
func (t *Tray) handleToggle() bool {
	enabled := !t.ctrl.IsEnabled()
	t.ctrl.SetEnabled(enabled)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	return enabled
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(name string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last, t.lastTime = name, at
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastGestureTitle(name, at))
	}
}

// LastGesture returns the most recently recognized gesture, or "".
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Paused"
}

func lastGestureTitle(name string, at time.Time) string {
	if name == "" {
		return "Last: none"
	}
	if at.IsZero() {
		return "Last: " + name
	}
	return fmt.Sprintf("Last: %s (%s)", name, at.Local().Format("15:04:05"))
}
