package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// IdleShutdown is how long the Python service may sit unused before it is stopped.
const IdleShutdown = 30 * time.Second

// ErrScriptNotFound is returned when mediapipe_service.py cannot be located.
var ErrScriptNotFound = errors.New("mediapipe_service.py not found")

// MediaPipeDetector runs hand tracking in a Python MediaPipe subprocess.
//
// Each frame goes to the service's stdin as a 4-byte big-endian length
// followed by JPEG bytes. The service answers with one JSON line
// {"hands":[WireHand...]} listing hands in detection order.
//
// The service starts on the first Detect and stops after IdleShutdown
// without frames. A broken pipe stops it too; the next Detect starts a
// fresh one, so the caller sees a single failed frame.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	logger     *slog.Logger

	mu     sync.Mutex
	proc   *serviceProc
	idle   *time.Timer
	starts int
}

type serviceProc struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// NewMediaPipeDetector locates the service script and returns a detector.
// Nothing is spawned until the first frame arrives.
func NewMediaPipeDetector(config Config, logger *slog.Logger) (*MediaPipeDetector, error) {
	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = firstExisting(searchPaths("scripts", "mediapipe_service.py")...)
	}
	if scriptPath == "" {
		return nil, ErrScriptNotFound
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScriptNotFound, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
		logger:     logger.With("component", "mediapipe"),
	}, nil
}

// Detect sends frame to the service and returns the hands it found.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.proc == nil {
		if err := d.start(); err != nil {
			return nil, err
		}
	}

	line, err := d.proc.roundTrip(buf.GetBytes())
	if err != nil {
		d.logger.Warn("mediapipe service failed, restarting on next frame", "err", err)
		d.stop()
		return nil, err
	}

	d.touch()
	return parseResponse(line)
}

func (p *serviceProc) roundTrip(jpeg []byte) ([]byte, error) {
	msg := binary.BigEndian.AppendUint32(make([]byte, 0, 4+len(jpeg)), uint32(len(jpeg)))
	msg = append(msg, jpeg...)
	if _, err := p.stdin.Write(msg); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}

	line, err := p.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return line, nil
}

// parseResponse decodes one service response line.
func parseResponse(line []byte) ([]HandLandmarks, error) {
	var response struct {
		Hands []WireHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	hands, err := FromWire(response.Hands)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return hands, nil
}

// Close stops the service if it is running.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

func (d *MediaPipeDetector) args() []string {
	return []string{
		d.scriptPath,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	}
}

func (d *MediaPipeDetector) python() string {
	if d.config.PythonPath != "" {
		return d.config.PythonPath
	}
	if p := firstExisting(searchPaths("venv", "bin/python")...); p != "" {
		return p
	}
	return "python3"
}

// start must be called with d.mu held.
func (d *MediaPipeDetector) start() error {
	python := d.python()
	cmd := exec.Command(python, d.args()...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.proc = &serviceProc{cmd: cmd, stdin: stdin, stdout: bufio.NewReader(stdout)}
	d.starts++
	d.logger.Info("mediapipe service started", "python", python, "script", d.scriptPath, "starts", d.starts)
	return nil
}

// stop must be called with d.mu held.
func (d *MediaPipeDetector) stop() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.proc == nil {
		return nil
	}

	p := d.proc
	d.proc = nil
	p.stdin.Close()
	err := p.cmd.Wait()
	d.logger.Info("mediapipe service stopped")
	return err
}

func (d *MediaPipeDetector) touch() {
	if d.idle != nil {
		d.idle.Stop()
	}
	d.idle = time.AfterFunc(IdleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.stop(); err != nil {
			d.logger.Warn("idle shutdown", "err", err)
		}
	})
}

// searchPaths lists where a bundled file may live: the working directory,
// its parent, next to the executable and under ~/.mudra.
func searchPaths(dir, name string) []string {
	rel := filepath.Join(dir, name)
	paths := []string{rel, filepath.Join("..", rel)}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), rel))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".mudra", rel))
	}
	return paths
}

// firstExisting returns the absolute form of the first path that exists.
func firstExisting(candidates ...string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}
