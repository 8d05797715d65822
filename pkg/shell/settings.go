package shell

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// WindowSettings is the window geometry persisted between runs.
type WindowSettings struct {
	X         int  `json:"x"`
	Y         int  `json:"y"`
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	Maximized bool `json:"maximized"`
}

// SettingsStore persists window settings as JSON under the user's config
// directory. Load and Save never fail the caller's flow: a missing or
// corrupt file simply means first-run defaults.
type SettingsStore struct {
	path string
}

// NewSettingsStore creates a store rooted at ~/.whodb/window-settings.json.
// An explicit path overrides the default, which tests use to stay inside
// their temp directories.
func NewSettingsStore(path string) *SettingsStore {
	if path == "" {
		path = defaultSettingsPath()
	}
	return &SettingsStore{path: path}
}

func defaultSettingsPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".whodb", "window-settings.json")
}

// Save writes the settings, creating the config directory if needed.
func (s *SettingsStore) Save(settings WindowSettings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}

// Load reads persisted settings. The boolean is false when no usable state
// exists, and the caller applies its built-in window defaults.
func (s *SettingsStore) Load() (WindowSettings, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return WindowSettings{}, false
	}

	var settings WindowSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return WindowSettings{}, false
	}

	return settings, true
}
