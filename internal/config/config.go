// Package config loads the mudra configuration file.
//
// The file may be YAML or JSON. Every field is optional; missing fields
// keep the values from Default.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Duration is a time.Duration written as a string like "2s" or "500ms".
type Duration struct {
	time.Duration
}

// MarshalJSON encodes d as a duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts a duration string.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

// Config is the full application configuration.
type Config struct {
	Recognition Recognition `json:"recognition"`
	Camera      Camera      `json:"camera"`
	Detector    Detector    `json:"detector"`
	Server      Server      `json:"server"`
	Store       Store       `json:"store"`
	Plugins     Plugins     `json:"plugins"`
	Log         Log         `json:"log"`
}

// Recognition tunes the gesture classifiers.
type Recognition struct {
	Duration          Duration `json:"duration"`
	MaxDropoutFrames  int      `json:"max_dropout_frames"`
	ExtendedThreshold float64  `json:"extended_threshold"`
	TouchThreshold    float64  `json:"touch_threshold"`
	HandOrder         string   `json:"hand_order"`
}

// Camera selects the capture device.
type Camera struct {
	Device int `json:"device"`
	FPS    int `json:"fps"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detector configures the MediaPipe subprocess.
type Detector struct {
	MaxHands               int     `json:"max_hands"`
	MinDetectionConfidence float64 `json:"min_detection_confidence"`
	MinTrackingConfidence  float64 `json:"min_tracking_confidence"`
	Script                 string  `json:"script"`
	Python                 string  `json:"python"`
}

// Server configures the HTTP API.
type Server struct {
	Addr      string `json:"addr"`
	StaticDir string `json:"static_dir"`
}

// Store configures the SQLite database.
type Store struct {
	Path string `json:"path"`
	// Retention drops journal events older than this at startup. Zero
	// keeps everything.
	Retention Duration `json:"retention"`
}

// Plugins configures plugin discovery and execution.
type Plugins struct {
	Dir     string   `json:"dir"`
	Timeout Duration `json:"timeout"`
}

// Log configures the process logger.
type Log struct {
	Level string `json:"level"`
}

// DataDir returns the per-user data directory, ~/.mudra.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

// Default returns the built-in configuration.
func Default() *Config {
	g := gesture.DefaultConfig()
	d := detector.DefaultConfig()
	c := capture.DefaultConfig()
	dataDir := DataDir()

	return &Config{
		Recognition: Recognition{
			Duration:          Duration{g.Duration},
			MaxDropoutFrames:  g.MaxDropoutFrames,
			ExtendedThreshold: g.ExtendedThreshold,
			TouchThreshold:    g.TouchThreshold,
			HandOrder:         string(g.HandOrder),
		},
		Camera: Camera{
			Device: c.DeviceID,
			FPS:    c.FPS,
			Width:  c.Width,
			Height: c.Height,
		},
		Detector: Detector{
			MaxHands:               d.MaxHands,
			MinDetectionConfidence: d.MinConfidence,
			MinTrackingConfidence:  d.MinTrackingConf,
			Script:                 d.ScriptPath,
			Python:                 d.PythonPath,
		},
		Server: Server{
			Addr: "127.0.0.1:8080",
		},
		Store: Store{
			Path: filepath.Join(dataDir, "mudra.db"),
		},
		Plugins: Plugins{
			Dir:     filepath.Join(dataDir, "plugins"),
			Timeout: Duration{10 * time.Second},
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads the file at path over Default and validates the result.
// Unknown fields are rejected.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	switch ext := filepath.Ext(cleanPath); ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("config file must be .yaml, .yml or .json, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Gesture().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("recognition: %w", err))
	}
	if c.Camera.FPS <= 0 {
		errs = append(errs, fmt.Errorf("camera: fps must be positive, got %d", c.Camera.FPS))
	}
	if c.Camera.Width < 0 || c.Camera.Height < 0 {
		errs = append(errs, fmt.Errorf("camera: size must not be negative, got %dx%d", c.Camera.Width, c.Camera.Height))
	}
	if c.Detector.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("detector: max_hands must be at least 1, got %d", c.Detector.MaxHands))
	}
	if !unit(c.Detector.MinDetectionConfidence) || !unit(c.Detector.MinTrackingConfidence) {
		errs = append(errs, errors.New("detector: confidences must be between 0 and 1"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server: addr must not be empty"))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store: path must not be empty"))
	}
	if c.Store.Retention.Duration < 0 {
		errs = append(errs, fmt.Errorf("store: retention must not be negative, got %s", c.Store.Retention))
	}
	if c.Plugins.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("plugins: timeout must be positive, got %s", c.Plugins.Timeout))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	return errors.Join(errs...)
}

func unit(v float64) bool { return v >= 0 && v <= 1 }

// Gesture converts the recognition section for the gesture package.
func (c *Config) Gesture() gesture.Config {
	return gesture.Config{
		Duration:          c.Recognition.Duration.Duration,
		MaxDropoutFrames:  c.Recognition.MaxDropoutFrames,
		ExtendedThreshold: c.Recognition.ExtendedThreshold,
		TouchThreshold:    c.Recognition.TouchThreshold,
		HandOrder:         gesture.HandOrder(c.Recognition.HandOrder),
	}
}

// DetectorConfig converts the detector section for the detector package.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinDetectionConfidence,
		MinTrackingConf: c.Detector.MinTrackingConfidence,
		ScriptPath:      c.Detector.Script,
		PythonPath:      c.Detector.Python,
	}
}

// CaptureConfig converts the camera section for the capture package.
func (c *Config) CaptureConfig() capture.Config {
	return capture.Config{
		DeviceID: c.Camera.Device,
		FPS:      c.Camera.FPS,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
	}
}

// ParseLevel maps a level name to a slog.Level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
	}
	return level, nil
}
