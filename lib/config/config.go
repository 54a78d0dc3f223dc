// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/lifeboard/lib/life"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "LIFEBOARD_CONFIG"

// Environment is the deployment type selecting an override section.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the lifeboard-service configuration.
type Config struct {
	Environment Environment    `yaml:"environment"`
	Paths       PathsConfig    `yaml:"paths"`
	Session     SessionConfig  `yaml:"session"`
	Limits      LimitsConfig   `yaml:"limits"`
	Defaults    DefaultsConfig `yaml:"defaults"`
	Log         LogConfig      `yaml:"log"`

	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides is the subset of Config an environment section may change.
// Empty fields leave the base value alone.
type Overrides struct {
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Session *SessionConfig `yaml:"session,omitempty"`
	Limits  *LimitsConfig  `yaml:"limits,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// PathsConfig locates the service's files. Socket and Database default
// to files inside State when empty.
type PathsConfig struct {
	State    string `yaml:"state"`
	Socket   string `yaml:"socket"`
	Database string `yaml:"database"`

	// Patterns is an optional JSONC pattern library merged over the
	// built-in patterns.
	Patterns string `yaml:"patterns"`
}

// SessionConfig tunes the per-board coordinators.
type SessionConfig struct {
	// TickInterval is the time between generations of a running board.
	TickInterval time.Duration `yaml:"tick_interval"`

	// SubscriberBuffer is the number of snapshots a subscription may
	// fall behind before it is marked for resync.
	SubscriberBuffer int `yaml:"subscriber_buffer"`

	// HeartbeatInterval is how often an otherwise idle subscribe
	// stream sends a heartbeat frame.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// LimitsConfig bounds board creation.
type LimitsConfig struct {
	MaxWidth  int `yaml:"max_width"`
	MaxHeight int `yaml:"max_height"`
}

// DefaultsConfig supplies create-board values the client omits.
type DefaultsConfig struct {
	Dimensions string `yaml:"dimensions"`

	// Rules is a preset name or a rule string.
	Rules string `yaml:"rules"`
}

// LogConfig sets the service log level: debug, info, warn, or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the development defaults rooted at stateDirectory.
func Default(stateDirectory string) *Config {
	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			State: stateDirectory,
		},
		Session: SessionConfig{
			TickInterval:      500 * time.Millisecond,
			SubscriberBuffer:  32,
			HeartbeatInterval: 15 * time.Second,
		},
		Limits: LimitsConfig{
			MaxWidth:  500,
			MaxHeight: 500,
		},
		Defaults: DefaultsConfig{
			Dimensions: "20x20",
			Rules:      "classic",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultStateDirectory is ~/.local/state/lifeboard, or a directory
// under the system temp dir when there is no home.
func DefaultStateDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "lifeboard")
	}
	return filepath.Join(home, ".local", "state", "lifeboard")
}

// Load reads the file named by LIFEBOARD_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of a lifeboard.yaml file, or pass --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile reads a config file over the defaults, applies the matching
// environment section, and expands variables in paths.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default(DefaultStateDirectory())
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyOverrides()
	cfg.expandPaths()
	return cfg, nil
}

func (c *Config) applyOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if paths := overrides.Paths; paths != nil {
		overrideString(&c.Paths.State, paths.State)
		overrideString(&c.Paths.Socket, paths.Socket)
		overrideString(&c.Paths.Database, paths.Database)
		overrideString(&c.Paths.Patterns, paths.Patterns)
	}
	if session := overrides.Session; session != nil {
		if session.TickInterval != 0 {
			c.Session.TickInterval = session.TickInterval
		}
		if session.SubscriberBuffer != 0 {
			c.Session.SubscriberBuffer = session.SubscriberBuffer
		}
		if session.HeartbeatInterval != 0 {
			c.Session.HeartbeatInterval = session.HeartbeatInterval
		}
	}
	if limits := overrides.Limits; limits != nil {
		if limits.MaxWidth != 0 {
			c.Limits.MaxWidth = limits.MaxWidth
		}
		if limits.MaxHeight != 0 {
			c.Limits.MaxHeight = limits.MaxHeight
		}
	}
	if overrides.Log != nil {
		overrideString(&c.Log.Level, overrides.Log.Level)
	}
}

func overrideString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func (c *Config) expandPaths() {
	vars := map[string]string{"HOME": os.Getenv("HOME")}
	c.Paths.State = expandVars(c.Paths.State, vars)
	vars["LIFEBOARD_STATE"] = c.Paths.State
	c.Paths.Socket = expandVars(c.Paths.Socket, vars)
	c.Paths.Database = expandVars(c.Paths.Database, vars)
	c.Paths.Patterns = expandVars(c.Paths.Patterns, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${NAME} and ${NAME:-default}, preferring vars over
// the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, fallback := parts[1], parts[2]
		if value := vars[name]; value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return fallback
	})
}

// SocketPath is Paths.Socket, or lifeboard.sock in the state directory.
func (c *Config) SocketPath() string {
	if c.Paths.Socket != "" {
		return c.Paths.Socket
	}
	return filepath.Join(c.Paths.State, "lifeboard.sock")
}

// DatabasePath is Paths.Database, or boards.db in the state directory.
func (c *Config) DatabasePath() string {
	if c.Paths.Database != "" {
		return c.Paths.Database
	}
	return filepath.Join(c.Paths.State, "boards.db")
}

// LockPath is the file the service holds an exclusive lock on.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.State, "lifeboard.lock")
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// DefaultDimensions parses Defaults.Dimensions.
func (c *Config) DefaultDimensions() (width, height int, err error) {
	return life.ParseDimensions(c.Defaults.Dimensions)
}

// DefaultRules resolves Defaults.Rules.
func (c *Config) DefaultRules() (life.RuleSet, error) {
	return life.LookupRules(c.Defaults.Rules)
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Environment {
	case Development, Staging, Production:
	default:
		errs = append(errs, fmt.Errorf("invalid environment %q", c.Environment))
	}
	if c.Paths.State == "" {
		errs = append(errs, errors.New("paths.state is required"))
	}
	if c.Session.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("session.tick_interval must be positive, got %v", c.Session.TickInterval))
	}
	if c.Session.HeartbeatInterval <= 0 {
		errs = append(errs, fmt.Errorf("session.heartbeat_interval must be positive, got %v", c.Session.HeartbeatInterval))
	}
	if c.Session.SubscriberBuffer < 1 {
		errs = append(errs, fmt.Errorf("session.subscriber_buffer must be at least 1, got %d", c.Session.SubscriberBuffer))
	}
	if c.Limits.MaxWidth <= 0 || c.Limits.MaxHeight <= 0 {
		errs = append(errs, fmt.Errorf("limits must be positive, got %dx%d", c.Limits.MaxWidth, c.Limits.MaxHeight))
	} else if c.Limits.MaxWidth > life.MaxCells/c.Limits.MaxHeight {
		errs = append(errs, fmt.Errorf("limits %dx%d exceed %d cells", c.Limits.MaxWidth, c.Limits.MaxHeight, life.MaxCells))
	}
	if width, height, err := c.DefaultDimensions(); err != nil {
		errs = append(errs, fmt.Errorf("defaults.dimensions: %w", err))
	} else if err := c.CheckDimensions(width, height); err != nil {
		errs = append(errs, fmt.Errorf("defaults.dimensions: %w", err))
	}
	if _, err := c.DefaultRules(); err != nil {
		errs = append(errs, fmt.Errorf("defaults.rules: %w", err))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CheckDimensions rejects boards larger than the configured limits with
// KindInvalidDimensions.
func (c *Config) CheckDimensions(width, height int) error {
	if width > c.Limits.MaxWidth || height > c.Limits.MaxHeight {
		return life.Errorf(life.KindInvalidDimensions, "board %dx%d exceeds the %dx%d limit",
			width, height, c.Limits.MaxWidth, c.Limits.MaxHeight)
	}
	return nil
}

// EnsurePaths creates the state directory and the parents of any
// relocated socket or database.
func (c *Config) EnsurePaths() error {
	for _, directory := range []string{
		c.Paths.State,
		filepath.Dir(c.SocketPath()),
		filepath.Dir(c.DatabasePath()),
	} {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", directory, err)
		}
	}
	return nil
}
