// Package config loads xctap settings from config files and XCTAP_*
// environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/vburojevic/xctap/internal/capture"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Format  string `mapstructure:"format"`
	Quiet   bool   `mapstructure:"quiet"`
	Verbose bool   `mapstructure:"verbose"`

	// Capture file settings
	Capture CaptureConfig `mapstructure:"capture"`

	// Default values for commands
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// CaptureConfig controls where capture files live and how long they stay
type CaptureConfig struct {
	Dir           string `mapstructure:"dir"`
	RetentionDays int    `mapstructure:"retention_days"`
	Mode          string `mapstructure:"mode"`
}

// Retention converts the configured day count to a duration. Non-positive
// values fall back to the default window.
func (c CaptureConfig) Retention() time.Duration {
	if c.RetentionDays <= 0 {
		return capture.DefaultRetention
	}
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// DefaultsConfig holds default values for capture targets
type DefaultsConfig struct {
	Simulator string `mapstructure:"simulator"`
	App       string `mapstructure:"app"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:  "ndjson",
		Quiet:   false,
		Verbose: false,
		Capture: CaptureConfig{
			RetentionDays: 3,
		},
		Defaults: DefaultsConfig{
			Simulator: "booted",
		},
	}
}

// Load loads configuration from the search path and environment. A missing
// config file is not an error; defaults apply.
func Load() (*Config, error) {
	cfg := Default()

	if path := findConfigFile(); path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigFile returns the path of the config file Load would use
func ConfigFile() string {
	return findConfigFile()
}

// findConfigFile walks the search path and returns the first config file,
// or "" when none exists. Order: current directory, user config dir, home
// directory, system-wide.
func findConfigFile() string {
	candidates := []string{".xctap.yaml", ".xctap.yml", "xctap.yaml"}

	if configDir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(configDir, "xctap", "xctap.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".xctap.yaml"),
			filepath.Join(home, ".xctap.yml"),
		)
	}
	candidates = append(candidates, "/etc/xctap/xctap.yaml")

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

// applyEnvOverrides applies XCTAP_* environment variables on top of cfg
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("XCTAP_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("XCTAP_QUIET"); v == "true" || v == "1" {
		cfg.Quiet = true
	}
	if v := os.Getenv("XCTAP_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("XCTAP_CAPTURE_DIR"); v != "" {
		cfg.Capture.Dir = v
	}
	if v := os.Getenv("XCTAP_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.Capture.RetentionDays = days
		}
	}
	if v := os.Getenv("XCTAP_MODE"); v != "" {
		cfg.Capture.Mode = v
	}
	if v := os.Getenv("XCTAP_SIMULATOR"); v != "" {
		cfg.Defaults.Simulator = v
	}
	if v := os.Getenv("XCTAP_APP"); v != "" {
		cfg.Defaults.App = v
	}
}
