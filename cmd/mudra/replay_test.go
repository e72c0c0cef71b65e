package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

func init() {
	logger = newLogger(io.Discard, slog.LevelDebug)
}

func frameLine(t *testing.T, ms int64, hands ...detector.HandLandmarks) string {
	t.Helper()
	b, err := json.Marshal(replayFrame{TMs: ms, Hands: detector.ToWire(hands)})
	require.NoError(t, err)
	return string(b)
}

func TestReadReplay(t *testing.T) {
	open := detector.OpenPalmLandmarks()
	input := strings.Join([]string{
		"# recorded on the podium laptop",
		frameLine(t, 0, open),
		"",
		`{"t_ms": 66, "dropout": true}`,
		frameLine(t, 133),
	}, "\n")

	frames, err := readReplay(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, frames, 3)

	assert.Equal(t, int64(0), frames[0].TMs)
	assert.Len(t, frames[0].Hands, 1)
	assert.Equal(t, 2, frames[0].line)
	assert.True(t, frames[1].Dropout)
	assert.Equal(t, 4, frames[1].line)
	assert.Empty(t, frames[2].Hands)
}

func TestReadReplay_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"bad json", "{\"t_ms\": 0}\n{oops", "line 2"},
		{"time goes backwards", "{\"t_ms\": 100}\n{\"t_ms\": 50}", "before the previous frame"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readReplay(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunReplay_ToggleFreeze(t *testing.T) {
	open := detector.OpenPalmLandmarks()

	var lines []string
	for ms := int64(0); ms <= 2400; ms += 100 {
		lines = append(lines, frameLine(t, ms, open, open))
	}
	frames, err := readReplay(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)

	a := app.New(app.Config{Recognition: gesture.DefaultConfig(), Logger: logger})

	calls := 0
	hits, err := runReplay(context.Background(), a, frames, time.Now(), func() { calls++ })
	require.NoError(t, err)

	assert.Equal(t, len(frames), calls)
	require.Len(t, hits, 1)
	assert.Equal(t, gesture.NameToggleFreeze, hits[0].Gesture)
	assert.Equal(t, 2100*time.Millisecond, hits[0].Offset, "fires on the first frame past the duration")
	assert.Equal(t, 22, hits[0].Line)
}

func TestRunReplay_DropoutsReset(t *testing.T) {
	open := detector.OpenPalmLandmarks()

	lines := []string{frameLine(t, 0, open, open)}
	for i := int64(1); i <= gesture.DefaultMaxDropoutFrames+1; i++ {
		lines = append(lines, `{"t_ms": `+jsonInt(i*10)+`, "dropout": true}`)
	}
	lines = append(lines, frameLine(t, 2500, open, open))

	frames, err := readReplay(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)

	a := app.New(app.Config{Recognition: gesture.DefaultConfig(), Logger: logger})
	hits, err := runReplay(context.Background(), a, frames, time.Now(), nil)
	require.NoError(t, err)

	assert.Empty(t, hits, "six dropouts restart the hold")
	assert.Equal(t, uint64(gesture.DefaultMaxDropoutFrames+1), a.Stats().Dropouts)
}

func TestRunReplay_MalformedFrameIsDropout(t *testing.T) {
	frames, err := readReplay(strings.NewReader(`{"t_ms": 0, "hands": [{"points": []}]}`))
	require.NoError(t, err)

	a := app.New(app.Config{Recognition: gesture.DefaultConfig(), Logger: logger})
	hits, err := runReplay(context.Background(), a, frames, time.Now(), nil)
	require.NoError(t, err)

	assert.Empty(t, hits)
	assert.Equal(t, uint64(1), a.Stats().Dropouts)
	assert.Zero(t, a.Stats().Frames)
}

func TestRunReplay_Cancelled(t *testing.T) {
	frames := []replayFrame{{TMs: 0}, {TMs: 10}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := app.New(app.Config{Recognition: gesture.DefaultConfig(), Logger: logger})
	_, err := runReplay(ctx, a, frames, time.Now(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrintHits(t *testing.T) {
	hits := []replayHit{{Line: 22, Offset: 2100 * time.Millisecond, Gesture: gesture.NameToggleFreeze}}

	var text bytes.Buffer
	require.NoError(t, printHits(&text, hits, false))
	assert.Contains(t, text.String(), "2.1s")
	assert.Contains(t, text.String(), "toggle_freeze")

	var js bytes.Buffer
	require.NoError(t, printHits(&js, hits, true))
	assert.JSONEq(t, `{"line":22,"offset":2100000000,"gesture":"toggle_freeze"}`, js.String())

	var empty bytes.Buffer
	require.NoError(t, printHits(&empty, nil, false))
	assert.Equal(t, "no gestures recognized\n", empty.String())
}

func TestBrowserURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8080/", browserURL(":8080"))
	assert.Equal(t, "http://localhost:9000/", browserURL("localhost:9000"))
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
