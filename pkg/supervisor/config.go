package supervisor

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds supervisor configuration
type Config struct {
	// BinaryName is the base name of the companion backend executable,
	// without any platform extension (e.g. "whodb")
	BinaryName string `yaml:"binary_name"`

	// Development enables probing DevBinDirs ahead of packaged locations
	Development bool `yaml:"development"`

	// DevBinDirs are build-tree locations probed first in development mode
	DevBinDirs []string `yaml:"dev_bin_dirs"`

	// DefaultPort is the well-known port assumed in degraded mode, when no
	// managed backend is running
	DefaultPort uint16 `yaml:"default_port"`

	// AllowedOrigins is the origin allow-list handed to the backend so its
	// access-control layer accepts requests from the shell's UI origins
	AllowedOrigins []string `yaml:"allowed_origins"`

	// GracePeriod is how long to wait after spawn before concluding the
	// process stayed up
	GracePeriod time.Duration `yaml:"grace_period"`

	// ProbeInterval is the delay between readiness probe attempts
	ProbeInterval time.Duration `yaml:"probe_interval"`

	// ProbeAttempts bounds the readiness probe attempt budget
	ProbeAttempts int `yaml:"probe_attempts"`

	// ProbeTimeout is the per-request timeout of a single readiness probe
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// CaptureOutput pipes the backend's stdout/stderr into the structured
	// logger instead of inheriting the shell's streams
	CaptureOutput bool `yaml:"capture_output"`
}

// DefaultConfig returns the configuration used when no file is present.
// The origin defaults cover the Vite dev server, the legacy CRA dev server,
// and the shell's custom URI scheme.
func DefaultConfig() *Config {
	return &Config{
		BinaryName:  "whodb",
		DefaultPort: 8080,
		AllowedOrigins: []string{
			"http://localhost:1420",
			"http://localhost:3000",
			"tauri://localhost",
		},
		GracePeriod:   1 * time.Second,
		ProbeInterval: 1 * time.Second,
		ProbeAttempts: 30,
		ProbeTimeout:  2 * time.Second,
	}
}

// LoadConfig reads a YAML configuration file and applies defaults for any
// field left at its zero value.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks configuration bounds
func (c *Config) Validate() error {
	if c.BinaryName == "" {
		return ErrInvalidConfiguration("binary_name", c.BinaryName, "binary name is required")
	}

	if c.DefaultPort == 0 {
		return ErrInvalidConfiguration("default_port", c.DefaultPort, "default port is required")
	}

	if c.GracePeriod <= 0 {
		return ErrInvalidConfiguration("grace_period", c.GracePeriod, "grace period must be positive")
	}

	if c.ProbeInterval <= 0 {
		return ErrInvalidConfiguration("probe_interval", c.ProbeInterval, "probe interval must be positive")
	}

	if c.ProbeAttempts < 1 {
		return ErrInvalidConfiguration("probe_attempts", c.ProbeAttempts, "probe attempts must be at least 1")
	}

	if c.ProbeTimeout <= 0 {
		return ErrInvalidConfiguration("probe_timeout", c.ProbeTimeout, "probe timeout must be positive")
	}

	return nil
}
