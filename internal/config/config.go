// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	atlaserrors "github.com/atlas-assistant/atlas/pkg/errors"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config represents the complete ATLAS shell configuration.
type Config struct {
	Log     LogConfig     `yaml:"log" json:"log"`
	Backend BackendConfig `yaml:"backend" json:"backend"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	// Environment: LOG_LEVEL
	// Default: info
	Level string `yaml:"level" json:"level"`

	// Format sets the output format (json, text).
	// Environment: LOG_FORMAT
	// Default: text
	Format string `yaml:"format" json:"format"`

	// AddSource adds source file and line information to logs.
	// Environment: LOG_SOURCE
	// Default: false
	AddSource bool `yaml:"add_source" json:"add_source"`
}

// BackendConfig configures how the backend process is found and launched.
type BackendConfig struct {
	// EntryPoint is the script passed to the interpreter.
	// Environment: ATLAS_BACKEND_ENTRY
	// Default: main.py
	EntryPoint string `yaml:"entry_point" json:"entry_point"`

	// Marker is the file whose presence accepts a candidate directory.
	// Default: the entry point
	Marker string `yaml:"marker" json:"marker"`

	// Layouts are candidate backend directories relative to the executable,
	// in priority order.
	Layouts []LayoutConfig `yaml:"layouts" json:"layouts"`

	// Interpreters are candidate invocations in priority order. The last one
	// is used without probing.
	Interpreters []InterpreterConfig `yaml:"interpreters" json:"interpreters"`

	// ProbeArgs are appended to a candidate to test whether it runs.
	// Default: [--version]
	ProbeArgs []string `yaml:"probe_args" json:"probe_args"`

	// PIDFile records the running backend's PID.
	// Environment: ATLAS_PID_FILE
	// Default: $XDG_STATE_HOME/atlas/backend.pid
	PIDFile string `yaml:"pid_file" json:"pid_file"`

	// EventLog is the JSON-lines lifecycle event log.
	// Environment: ATLAS_EVENT_LOG
	// Default: $XDG_STATE_HOME/atlas/lifecycle.log
	EventLog string `yaml:"event_log" json:"event_log"`
}

// LayoutConfig is one candidate backend location.
type LayoutConfig struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// InterpreterConfig is one candidate interpreter invocation.
type InterpreterConfig struct {
	Program string   `yaml:"program" json:"program"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint served by "atlas run".
type MetricsConfig struct {
	// Addr is the listen address. Empty disables the endpoint.
	// Environment: ATLAS_METRICS_ADDR
	Addr string `yaml:"addr" json:"addr"`

	// ShutdownTimeout bounds the metrics server's graceful shutdown.
	// Default: 5s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	backend := defaultBackend()
	return &Config{
		Log: LogConfig{
			Level:     "info",
			Format:    "text",
			AddSource: false,
		},
		Backend: backend,
		Metrics: MetricsConfig{
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

func defaultBackend() BackendConfig {
	stateDir := StateDir()
	return BackendConfig{
		EntryPoint: "main.py",
		Layouts: []LayoutConfig{
			{Name: "production", Path: "backend/src"},
			{Name: "development", Path: "../../backend/src"},
		},
		Interpreters: []InterpreterConfig{
			{Program: "py", Args: []string{"-3.12"}},
			{Program: "python3.12"},
			{Program: "python"},
		},
		ProbeArgs: []string{"--version"},
		PIDFile:   filepath.Join(stateDir, "backend.pid"),
		EventLog:  filepath.Join(stateDir, "lifecycle.log"),
	}
}

// Load loads configuration from the given path, then environment variables.
// An empty path loads defaults and environment only.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &atlaserrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	// Apply defaults to any zero values (handles minimal configs)
	cfg.applyDefaults()

	cfg.loadFromEnv()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, &atlaserrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// LoadOptional loads configPath if it exists and falls back to defaults
// when it does not. Other read or parse failures are returned.
func LoadOptional(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(expandHome(configPath)); errors.Is(err, os.ErrNotExist) {
			configPath = ""
		}
	}
	return Load(configPath)
}

func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}

	b := &c.Backend
	if b.EntryPoint == "" {
		b.EntryPoint = defaults.Backend.EntryPoint
	}
	if b.Marker == "" {
		b.Marker = b.EntryPoint
	}
	if len(b.Layouts) == 0 {
		b.Layouts = defaults.Backend.Layouts
	}
	if len(b.Interpreters) == 0 {
		b.Interpreters = defaults.Backend.Interpreters
	}
	if b.ProbeArgs == nil {
		b.ProbeArgs = defaults.Backend.ProbeArgs
	}
	if b.PIDFile == "" {
		b.PIDFile = defaults.Backend.PIDFile
	}
	if b.EventLog == "" {
		b.EventLog = defaults.Backend.EventLog
	}

	if c.Metrics.ShutdownTimeout == 0 {
		c.Metrics.ShutdownTimeout = defaults.Metrics.ShutdownTimeout
	}
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_SOURCE"); val != "" {
		c.Log.AddSource = val == "1" || strings.ToLower(val) == "true"
	}

	if val := os.Getenv("ATLAS_BACKEND_ENTRY"); val != "" {
		// The marker follows the entry point unless configured separately
		if c.Backend.Marker == c.Backend.EntryPoint {
			c.Backend.Marker = val
		}
		c.Backend.EntryPoint = val
	}
	if val := os.Getenv("ATLAS_PID_FILE"); val != "" {
		c.Backend.PIDFile = val
	}
	if val := os.Getenv("ATLAS_EVENT_LOG"); val != "" {
		c.Backend.EventLog = val
	}
	if val := os.Getenv("ATLAS_METRICS_ADDR"); val != "" {
		c.Metrics.Addr = val
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [trace, debug, info, warn, warning, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	b := c.Backend
	if strings.TrimSpace(b.EntryPoint) == "" {
		errs = append(errs, "backend.entry_point must not be empty")
	}
	if len(b.Layouts) == 0 {
		errs = append(errs, "backend.layouts must list at least one location")
	}
	for i, l := range b.Layouts {
		if l.Path == "" {
			errs = append(errs, fmt.Sprintf("backend.layouts[%d].path must not be empty", i))
			continue
		}
		if filepath.IsAbs(filepath.FromSlash(l.Path)) {
			errs = append(errs, fmt.Sprintf("backend.layouts[%d].path must be relative to the executable, got %q", i, l.Path))
		}
	}
	if len(b.Interpreters) == 0 {
		errs = append(errs, "backend.interpreters must list at least one invocation")
	}
	for i, inv := range b.Interpreters {
		if strings.TrimSpace(inv.Program) == "" {
			errs = append(errs, fmt.Sprintf("backend.interpreters[%d].program must not be empty", i))
		}
	}

	if c.Metrics.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("metrics.shutdown_timeout must be positive, got %v", c.Metrics.ShutdownTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}

	return nil
}

// expandHome expands a leading "~/" to the user's home directory.
// expandPaths resolves a leading ~/ in file paths from the file or env.
func (c *Config) expandPaths() {
	c.Backend.PIDFile = expandHome(c.Backend.PIDFile)
	c.Backend.EventLog = expandHome(c.Backend.EventLog)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
