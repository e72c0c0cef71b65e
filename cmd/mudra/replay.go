package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// maxReplayLine bounds one JSON line. Two hands with full precision
// floats fit comfortably.
const maxReplayLine = 1 << 20

var replayOpts struct {
	record bool
	asJSON bool
}

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Recognize gestures from a recorded landmark file",
	Long: `Replay a JSON-lines recording through the recognizer. Each line is

  {"t_ms": 1200, "hands": [{"points": [{"x":0.5,"y":0.4,"z":0}, ...], "handedness": "Left"}]}

where t_ms is the frame time in milliseconds from the start of the
recording. A line {"t_ms": 1266, "dropout": true} marks a frame the
tracker lost. Blank lines and lines starting with # are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		frames, err := readReplay(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		appCfg := app.Config{Recognition: cfg.Gesture(), Logger: logger}
		if replayOpts.record {
			st, err := store.New(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()
			appCfg.Store = st
		}
		a := app.New(appCfg)

		bar := progressbar.NewOptions(len(frames),
			progressbar.OptionSetDescription("Replaying"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		hits, err := runReplay(cmd.Context(), a, frames, time.Now(), func() { bar.Add(1) })
		bar.Finish()
		if err != nil {
			return err
		}

		return printHits(cmd.OutOrStdout(), hits, replayOpts.asJSON)
	},
}

func init() {
	replayCmd.Flags().BoolVar(&replayOpts.record, "record", false, "Journal recognized gestures to the store")
	replayCmd.Flags().BoolVar(&replayOpts.asJSON, "json", false, "Print recognized gestures as JSON lines")
	rootCmd.AddCommand(replayCmd)
}

// replayFrame is one line of a recording.
type replayFrame struct {
	TMs     int64               `json:"t_ms"`
	Hands   []detector.WireHand `json:"hands"`
	Dropout bool                `json:"dropout,omitempty"`

	line int
}

// replayHit is one recognized gesture.
type replayHit struct {
	Line    int           `json:"line"`
	Offset  time.Duration `json:"offset"`
	Gesture string        `json:"gesture"`
}

// readReplay parses a JSON-lines recording. Frame times must not go
// backwards.
func readReplay(r io.Reader) ([]replayFrame, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxReplayLine)

	var frames []replayFrame
	var last int64
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 || b[0] == '#' {
			continue
		}

		var f replayFrame
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if f.TMs < last {
			return nil, fmt.Errorf("line %d: t_ms %d is before the previous frame (%d)", line, f.TMs, last)
		}
		last = f.TMs
		f.line = line
		frames = append(frames, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

// runReplay feeds frames to a, timestamped at base plus their offset.
// Frames with malformed hands count as dropouts, as they do for a live
// camera.
func runReplay(ctx context.Context, a *app.App, frames []replayFrame, base time.Time, progress func()) ([]replayHit, error) {
	var hits []replayHit
	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return hits, err
		}
		if progress != nil {
			progress()
		}

		if f.Dropout {
			a.MarkDropout()
			continue
		}

		hands, err := detector.FromWire(f.Hands)
		if err != nil {
			logger.Warn("skipping malformed frame", "line", f.line, "err", err)
			a.MarkDropout()
			continue
		}

		offset := time.Duration(f.TMs) * time.Millisecond
		res, err := a.ProcessFrame(ctx, gesture.Frame{Time: base.Add(offset), Hands: hands})
		if err != nil {
			if !errors.Is(err, gesture.ErrInvalidInput) {
				return hits, err
			}
			logger.Warn("skipping malformed frame", "line", f.line, "err", err)
			a.MarkDropout()
			continue
		}
		if res.Recognized {
			hits = append(hits, replayHit{Line: f.line, Offset: offset, Gesture: res.Name})
		}
	}
	return hits, nil
}

func printHits(w io.Writer, hits []replayHit, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, h := range hits {
			if err := enc.Encode(h); err != nil {
				return err
			}
		}
		return nil
	}

	if len(hits) == 0 {
		_, err := fmt.Fprintln(w, "no gestures recognized")
		return err
	}
	for _, h := range hits {
		if _, err := fmt.Fprintf(w, "%10s  line %-6d %s\n", h.Offset, h.Line, h.Gesture); err != nil {
			return err
		}
	}
	return nil
}
