// Package config loads the optional xcdiag server configuration.
//
// Configuration lives in ~/.xcdiag/config.yaml. Every field has a
// default; a missing file is not an error. Unknown keys are rejected
// so typos surface at startup instead of silently meaning nothing.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds server configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// DataDir holds the history journal database.
	DataDir string `yaml:"data_dir"`

	// HistoryLimit bounds the diagnostics journal.
	HistoryLimit int `yaml:"history_limit"`

	// CrashReportDir overrides the crash-report search directory.
	// Empty means the platform default.
	CrashReportDir string `yaml:"crash_report_dir"`

	// ToolTimeout bounds each external tool invocation
	// (xcresulttool). Zero disables the bound.
	ToolTimeout Duration `yaml:"tool_timeout"`
}

// Duration decodes Go duration strings ("30s", "2m") from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Default returns the configuration used when no file exists.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		LogLevel:     "info",
		DataDir:      filepath.Join(home, ".xcdiag"),
		HistoryLimit: 200,
		ToolTimeout:  Duration(2 * time.Minute),
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".xcdiag", "config.yaml")
}

// Load reads path, overlaying its values on the defaults. A missing
// file yields the defaults; a malformed file or unknown key is an
// error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values after defaults are applied.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be one of: debug, info, warn, error", c.LogLevel)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.ToolTimeout < 0 {
		return fmt.Errorf("tool_timeout must not be negative, got %s", c.ToolTimeout)
	}
	return nil
}
