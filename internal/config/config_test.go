package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/gesture"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, gesture.DefaultConfig(), cfg.Gesture())
	assert.Equal(t, 10*time.Second, cfg.Plugins.Timeout.Duration)
	assert.Equal(t, "mudra.db", filepath.Base(cfg.Store.Path))
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "mudra.yaml", `
recognition:
  duration: 1500ms
  max_dropout_frames: 3
  hand_order: handedness
camera:
  device: 2
server:
  addr: ":9090"
store:
  retention: 720h
plugins:
  timeout: 3s
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	g := cfg.Gesture()
	assert.Equal(t, 1500*time.Millisecond, g.Duration)
	assert.Equal(t, 3, g.MaxDropoutFrames)
	assert.Equal(t, gesture.HandOrderHandedness, g.HandOrder)
	assert.Equal(t, gesture.DefaultTouchThreshold, g.TouchThreshold, "unset fields keep defaults")

	assert.Equal(t, 2, cfg.CaptureConfig().DeviceID)
	assert.Equal(t, Default().Camera.FPS, cfg.CaptureConfig().FPS)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Plugins.Timeout.Duration)
	assert.Equal(t, 30*24*time.Hour, cfg.Store.Retention.Duration)

	level, err := ParseLevel(cfg.Log.Level)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "mudra.json", `{"recognition": {"touch_threshold": 0.05}, "detector": {"max_hands": 4}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.05, cfg.Gesture().TouchThreshold)
	assert.Equal(t, 4, cfg.DetectorConfig().MaxHands)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"wrong extension", "mudra.toml", "", "must be .yaml"},
		{"unknown field", "mudra.yaml", "recognition:\n  speed: 3\n", "failed to parse"},
		{"bad duration", "mudra.yaml", "recognition:\n  duration: soon\n", "invalid duration"},
		{"negative duration", "mudra.yaml", "recognition:\n  duration: -1s\n", "duration must be positive"},
		{"bad level", "mudra.yaml", "log:\n  level: loud\n", "unknown level"},
		{"bad hand order", "mudra.yaml", "recognition:\n  hand_order: mirror\n", "unknown hand order"},
		{"zero fps", "mudra.yaml", "camera:\n  fps: 0\n", "fps must be positive"},
		{"confidence out of range", "mudra.yaml", "detector:\n  min_tracking_confidence: 2\n", "confidences"},
		{"negative retention", "mudra.yaml", "store:\n  retention: -24h\n", "retention must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDuration_JSON(t *testing.T) {
	b, err := json.Marshal(Duration{2 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, `"2s"`, string(b))

	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"250ms"`), &d))
	assert.Equal(t, 250*time.Millisecond, d.Duration)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
