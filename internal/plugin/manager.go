package plugin

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

var (
	// ErrPluginNotFound is returned when a requested plugin cannot be found.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrActionNotSupported is returned when a plugin does not list an action.
	ErrActionNotSupported = errors.New("action not supported")
)

// Manager keeps the set of discovered plugins.
type Manager struct {
	pluginDir string
	plugins   map[string]*Plugin
	logger    *slog.Logger
	mu        sync.RWMutex
}

// NewManager creates a Manager for pluginDir. A nil logger uses slog.Default.
func NewManager(pluginDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
		logger:    logger.With("component", "plugins"),
	}
}

// Discover rescans the plugin directory. Each subdirectory with a valid
// plugin.json becomes a plugin; anything else is skipped and logged.
// A missing plugin directory yields no plugins and no error.
func (m *Manager) Discover() error {
	found := make(map[string]*Plugin)
	defer func() {
		m.mu.Lock()
		m.plugins = found
		m.mu.Unlock()
	}()

	entries, err := os.ReadDir(m.pluginDir)
	if errors.Is(err, fs.ErrNotExist) {
		m.logger.Debug("plugin directory does not exist", "dir", m.pluginDir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("scan plugins: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(m.pluginDir, entry.Name())

		p, err := loadPlugin(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			m.logger.Warn("skipping plugin", "path", dir, "err", err)
			continue
		}
		if prev, dup := found[p.Manifest.Name]; dup {
			m.logger.Warn("skipping duplicate plugin", "name", p.Manifest.Name, "path", dir, "kept", prev.Path)
			continue
		}

		found[p.Manifest.Name] = p
		m.logger.Info("plugin discovered", "name", p.Manifest.Name, "version", p.Manifest.Version, "actions", p.Manifest.Actions)
	}
	return nil
}

// loadPlugin reads dir/plugin.json. It returns an fs.ErrNotExist error
// when dir has no manifest at all.
func loadPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	exe := filepath.Join(dir, manifest.Executable)
	info, err := os.Stat(exe)
	if err != nil {
		return nil, fmt.Errorf("executable: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("executable %s is a directory", manifest.Executable)
	}

	return &Plugin{Manifest: manifest, Path: dir, Executable: exe}, nil
}

// Get returns the plugin called name, or ErrPluginNotFound.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.plugins[name]; ok {
		return p, nil
	}
	return nil, ErrPluginNotFound
}

// Supports checks that plugin name exists and lists action.
func (m *Manager) Supports(name, action string) error {
	p, err := m.Get(name)
	if err != nil {
		return fmt.Errorf("%q: %w", name, err)
	}
	if !p.Supports(action) {
		return fmt.Errorf("%q does not offer %q: %w", name, action, ErrActionNotSupported)
	}
	return nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.SortedFunc(maps.Values(m.plugins), func(a, b *Plugin) int {
		return cmp.Compare(a.Manifest.Name, b.Manifest.Name)
	})
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
