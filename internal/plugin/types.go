// Package plugin discovers and runs the external programs that carry out
// gesture actions.
//
// A plugin is a directory holding a plugin.json manifest and an
// executable. The executable receives one JSON Request on stdin and
// writes one JSON Response to stdout.
package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
)

// manifestFile is the name of the manifest inside a plugin directory.
const manifestFile = "plugin.json"

// ErrInvalidManifest is returned for a plugin.json that cannot be used.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is the content of plugin.json.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Validate checks the fields discovery relies on. The executable must be
// a plain path inside the plugin directory.
func (m Manifest) Validate() error {
	switch {
	case m.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidManifest)
	case m.Executable == "":
		return fmt.Errorf("%w: missing executable", ErrInvalidManifest)
	case filepath.IsAbs(m.Executable) || !filepath.IsLocal(m.Executable):
		return fmt.Errorf("%w: executable %q escapes the plugin directory", ErrInvalidManifest, m.Executable)
	case len(m.Actions) == 0:
		return fmt.Errorf("%w: no actions", ErrInvalidManifest)
	}
	return nil
}

// Request is sent to a plugin on stdin.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the manifest lists action.
func (p *Plugin) Supports(action string) bool {
	return slices.Contains(p.Manifest.Actions, action)
}
