// Package config provides YAML configuration parsing for Toastboard.
//
// This package enables running Toastboard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Release Desk
//	port: 8080
//
//	dismiss:
//	  default: 5s
//	  error: 0s   # errors stay until dismissed
//
//	log:
//	  level: info
//	  format: json
//	  file: /var/log/toastboard.log
//
//	toasts:
//	  - title: Welcome
//	    kind: info
//	    description: ${GREETING:-Toastboard is running}
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort = 8080

	// maxDismissAfter bounds every dismiss duration.
	maxDismissAfter = time.Hour

	defaultLogMaxSizeMB  = 50
	defaultLogMaxBackups = 5
	defaultLogMaxAgeDays = 14
	defaultLogLevel      = "info"
	defaultLogFormat     = "json"
)

// Config is the root configuration structure for Toastboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the page title. Defaults to "Toastboard" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// Dismiss sets per-kind auto-dismiss delays.
	Dismiss DismissConfig `yaml:"dismiss"`

	// Log configures the CLI logger.
	Log LogConfig `yaml:"log"`

	// Toasts are shown once at startup.
	Toasts []ToastConfig `yaml:"toasts"`
}

// DismissConfig holds auto-dismiss delays. A nil field keeps the SDK
// default for that kind; "0s" disables auto-dismiss.
type DismissConfig struct {
	// Default applies to neutral toasts and to any kind left unset here.
	Default *Duration `yaml:"default"`
	Success *Duration `yaml:"success"`
	Info    *Duration `yaml:"info"`
	Error   *Duration `yaml:"error"`
}

// LogConfig configures logging for the standalone binary.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`

	// Format is json or text. Defaults to json.
	Format string `yaml:"format"`

	// File, when set, also writes logs to a rotated file.
	File string `yaml:"file"`

	// MaxSizeMB is the size at which the log file is rotated. Defaults to 50.
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is how many rotated files to keep. Defaults to 5.
	MaxBackups int `yaml:"max_backups"`

	// MaxAgeDays is how long rotated files are kept. Defaults to 14.
	MaxAgeDays int `yaml:"max_age_days"`
}

// ToastConfig is a toast shown at startup.
type ToastConfig struct {
	// Title is required. Supports environment variable substitution.
	Title string `yaml:"title"`

	// Kind is success, error, info, or empty for neutral.
	Kind string `yaml:"kind"`

	// Description is optional. Supports environment variable substitution.
	Description string `yaml:"description"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment, without overriding variables that are already set. Call it
// before [Load] so the file's values are available to ${VAR} expansion.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in toast titles and descriptions are expanded.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Defaults are applied for Port (8080) and the log settings.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = defaultLogMaxBackups
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = defaultLogMaxAgeDays
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	dismiss := []struct {
		name string
		d    *Duration
	}{
		{"default", c.Dismiss.Default},
		{"success", c.Dismiss.Success},
		{"info", c.Dismiss.Info},
		{"error", c.Dismiss.Error},
	}
	for _, entry := range dismiss {
		if entry.d == nil {
			continue
		}
		if d := entry.d.Duration(); d < 0 || d > maxDismissAfter {
			return fmt.Errorf("dismiss.%s must be between 0s and %s, got %s", entry.name, maxDismissAfter, d)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return errors.New("log rotation settings cannot be negative")
	}

	for i := range c.Toasts {
		tc := &c.Toasts[i]

		title, err := expandEnvVars(tc.Title)
		if err != nil {
			return fmt.Errorf("toasts[%d]: title: %w", i, err)
		}
		tc.Title = title
		if strings.TrimSpace(tc.Title) == "" {
			return fmt.Errorf("toasts[%d]: title is required", i)
		}

		desc, err := expandEnvVars(tc.Description)
		if err != nil {
			return fmt.Errorf("toasts[%d] (%s): description: %w", i, tc.Title, err)
		}
		tc.Description = desc

		switch tc.Kind {
		case "", "success", "error", "info":
		default:
			return fmt.Errorf("toasts[%d] (%s): kind must be success, error, or info, got %q", i, tc.Title, tc.Kind)
		}
	}

	return nil
}
