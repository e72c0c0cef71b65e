package gesture

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the tuning for the built-in classifiers.
type Config struct {
	// Duration is how long a multi-frame pose must be held before it fires.
	Duration time.Duration

	// MaxDropoutFrames is how many consecutive dropout frames a temporal
	// gesture tolerates before its timer is reset.
	MaxDropoutFrames int

	// ExtendedThreshold is the tip-to-base distance for an extended finger.
	ExtendedThreshold float64

	// TouchThreshold is the thumb-to-index distance for touching tips.
	TouchThreshold float64

	// HandOrder decides which hand is "left" for switch_content.
	HandOrder HandOrder
}

// DefaultConfig returns a Config with the tuned default values.
func DefaultConfig() Config {
	return Config{
		Duration:          DefaultDuration,
		MaxDropoutFrames:  DefaultMaxDropoutFrames,
		ExtendedThreshold: DefaultExtendedThreshold,
		TouchThreshold:    DefaultTouchThreshold,
		HandOrder:         HandOrderDetection,
	}
}

// Validate checks that every value is usable.
func (c Config) Validate() error {
	var errs []error
	if c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %s", c.Duration))
	}
	if c.MaxDropoutFrames < 0 {
		errs = append(errs, fmt.Errorf("max dropout frames must not be negative, got %d", c.MaxDropoutFrames))
	}
	if c.ExtendedThreshold <= 0 {
		errs = append(errs, fmt.Errorf("extended threshold must be positive, got %g", c.ExtendedThreshold))
	}
	if c.TouchThreshold <= 0 {
		errs = append(errs, fmt.Errorf("touch threshold must be positive, got %g", c.TouchThreshold))
	}
	if _, err := ParseHandOrder(string(c.HandOrder)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
