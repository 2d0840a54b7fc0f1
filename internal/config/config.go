// Package config handles agent configuration loading and saving.
// Configuration is stored in JSON format with restricted permissions (0600).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	configFileName = "hostlens.json"
	configFileMode = 0600
)

var ErrConfigNotFound = errors.New("configuration file not found")

// Config holds the agent configuration.
type Config struct {
	// StagingDir is the scratch directory for dump artifacts. Empty means
	// the OS temp directory.
	StagingDir string `json:"staging_dir,omitempty"`

	// LogDir overrides the default log directory.
	LogDir string `json:"log_dir,omitempty"`

	// BaseAddress is the base locator from which record links are built.
	BaseAddress string `json:"base_address,omitempty"`

	// DumpFlags is the default dump breadth bitmask, passed through to the
	// OS dump facility unchanged.
	DumpFlags uint32 `json:"dump_flags,omitempty"`

	Debug bool `json:"debug,omitempty"`

	filePath string
}

// Paths holds the various paths used by the agent.
type Paths struct {
	BaseDir    string
	ConfigFile string
	StagingDir string
	LogDir     string
}

// DefaultPaths returns the default paths for the current OS.
func DefaultPaths() Paths {
	var baseDir, logDir string

	switch runtime.GOOS {
	case "darwin":
		baseDir = "/Library/Application Support/Hostlens"
		logDir = "/var/log/hostlens"
	case "windows":
		baseDir = filepath.Join(os.Getenv("ProgramData"), "Hostlens")
		logDir = filepath.Join(baseDir, "log")
	default: // linux
		baseDir = "/var/lib/hostlens"
		logDir = "/var/log/hostlens"
	}

	return Paths{
		BaseDir:    baseDir,
		ConfigFile: filepath.Join(baseDir, configFileName),
		StagingDir: filepath.Join(baseDir, "staging"),
		LogDir:     logDir,
	}
}

// Load reads the configuration from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.filePath = path
	return &cfg, nil
}

// LoadOrDefault reads the configuration, falling back to built-in defaults
// when no config file exists.
func LoadOrDefault(paths Paths) (*Config, error) {
	cfg, err := Load(paths.ConfigFile)
	if errors.Is(err, ErrConfigNotFound) {
		return &Config{
			StagingDir: paths.StagingDir,
			LogDir:     paths.LogDir,
			filePath:   paths.ConfigFile,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	if cfg.StagingDir == "" {
		cfg.StagingDir = paths.StagingDir
	}
	if cfg.LogDir == "" {
		cfg.LogDir = paths.LogDir
	}
	return cfg, nil
}

// Save writes the configuration to disk with restricted permissions.
func (c *Config) Save() error {
	if c.filePath == "" {
		return errors.New("config file path not set")
	}

	if err := os.MkdirAll(filepath.Dir(c.filePath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.filePath, data, configFileMode); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
