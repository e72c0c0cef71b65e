// Package main is the presenter plugin. It turns gesture actions into
// slide navigation keystrokes: AppleScript on macOS, xdotool on Linux.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeystrokeParams names a key and its modifiers. It is read from the
// binding config and may be overridden per request through params.
type KeystrokeParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
	DryRun    bool     `json:"dry_run"`
}

// defaultKeys are the keystrokes most presentation apps understand.
var defaultKeys = map[string]string{
	"next":     "right",
	"previous": "left",
	"freeze":   "b",
}

// macKeyCodes maps named keys to macOS virtual key codes.
var macKeyCodes = map[string]int{
	"right": 124,
	"left":  123,
	"down":  125,
	"up":    126,
	"space": 49,
	"esc":   53,
}

// macModifiers maps user-friendly modifier names to AppleScript equivalents.
var macModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// xdoKeys maps named keys to X keysyms.
var xdoKeys = map[string]string{
	"right": "Right",
	"left":  "Left",
	"down":  "Down",
	"up":    "Up",
	"space": "space",
	"esc":   "Escape",
}

// xdoModifiers maps user-friendly modifier names to xdotool modifiers.
var xdoModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	resp := handle(os.Stdin, runtime.GOOS, run)
	json.NewEncoder(os.Stdout).Encode(resp)
}

// handle decodes one request from r and performs it with runCmd.
func handle(r io.Reader, goos string, runCmd func(name string, args ...string) error) Response {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return errorResponse(fmt.Sprintf("failed to decode request: %v", err))
	}

	p, err := resolve(req)
	if err != nil {
		return errorResponse(err.Error())
	}

	name, args, err := buildCommand(goos, p.Key, p.Modifiers)
	if err != nil {
		return errorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
	}

	data, _ := json.Marshal(map[string]any{"command": append([]string{name}, args...)})
	if p.DryRun {
		return Response{Success: true, Data: data}
	}

	if err := runCmd(name, args...); err != nil {
		return errorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
	}
	return Response{Success: true, Data: data}
}

// resolve merges the action's default key, the binding config and the
// request params, in that order.
func resolve(req Request) (KeystrokeParams, error) {
	var p KeystrokeParams

	switch req.Action {
	case "next", "previous", "freeze":
		p.Key = defaultKeys[req.Action]
	case "keystroke":
	default:
		return p, fmt.Errorf("unknown action: %s", req.Action)
	}

	for _, raw := range []json.RawMessage{req.Config, req.Params} {
		if len(raw) == 0 {
			continue
		}
		var override KeystrokeParams
		if err := json.Unmarshal(raw, &override); err != nil {
			return p, fmt.Errorf("failed to parse params: %w", err)
		}
		if override.Key != "" {
			p.Key = override.Key
		}
		if len(override.Modifiers) > 0 {
			p.Modifiers = override.Modifiers
		}
		p.DryRun = p.DryRun || override.DryRun
	}

	if p.Key == "" {
		return p, fmt.Errorf("key is required")
	}
	return p, nil
}

// buildCommand returns the program and arguments that press key on goos.
func buildCommand(goos, key string, modifiers []string) (string, []string, error) {
	key = strings.ToLower(key)

	switch goos {
	case "darwin":
		return "osascript", []string{"-e", buildAppleScript(key, modifiers)}, nil
	case "linux":
		sym, ok := xdoKeys[key]
		if !ok {
			sym = key
		}
		var parts []string
		for _, mod := range modifiers {
			if m, ok := xdoModifiers[strings.ToLower(mod)]; ok {
				parts = append(parts, m)
			}
		}
		parts = append(parts, sym)
		return "xdotool", []string{"key", strings.Join(parts, "+")}, nil
	}
	return "", nil, fmt.Errorf("unsupported platform %s", goos)
}

func buildAppleScript(key string, modifiers []string) string {
	press := fmt.Sprintf(`keystroke "%s"`, key)
	if code, ok := macKeyCodes[key]; ok {
		press = fmt.Sprintf("key code %d", code)
	}

	var appleModifiers []string
	for _, mod := range modifiers {
		if m, ok := macModifiers[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, m)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to %s`, press)
	}
	return fmt.Sprintf(`tell application "System Events" to %s using {%s}`, press, strings.Join(appleModifiers, ", "))
}

func errorResponse(msg string) Response {
	return Response{Success: false, Error: msg}
}

// run executes a command and returns its output on failure.
func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
