// Package config provides tool configuration for halint using Viper for
// flexible loading from files, environment variables, and command-line
// flags.
//
// Configuration precedence, highest first: command-line flags, HALINT_
// environment variables, the .halint.yml configuration file, built-in
// defaults.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Output     OutputConfig     `yaml:"output"`
	Official   OfficialConfig   `yaml:"official"`
	References ReferencesConfig `yaml:"references"`
	Watch      WatchConfig      `yaml:"watch"`
}

type PathsConfig struct {
	// ConfigDir is the configuration tree root holding configuration.yaml.
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
	// StorageDir holds the registry snapshots. Defaults to
	// <config_dir>/.storage.
	StorageDir string `yaml:"storage_dir" mapstructure:"storage_dir"`
}

type OutputConfig struct {
	// Format selects the report renderer (text, json).
	Format string `yaml:"format" mapstructure:"format"`
}

type OfficialConfig struct {
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	Command        string `yaml:"command" mapstructure:"command"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

type ReferencesConfig struct {
	// TemplateUnknownBlocks makes unknown references inside template
	// expressions block deployment (error instead of warning).
	TemplateUnknownBlocks bool `yaml:"template_unknown_blocks" mapstructure:"template_unknown_blocks"`
}

type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// Load builds the configuration from viper's merged sources and applies
// defaults and validation.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Paths.ConfigDir == "" {
		config.Paths.ConfigDir = "config"
	}
	if config.Paths.StorageDir == "" {
		config.Paths.StorageDir = filepath.Join(config.Paths.ConfigDir, ".storage")
	}
	if config.Output.Format == "" {
		config.Output.Format = "text"
	}
	if !viper.IsSet("official.enabled") {
		config.Official.Enabled = true
	}
	if config.Official.Command == "" {
		config.Official.Command = "hass"
	}
	if config.Official.TimeoutSeconds == 0 {
		config.Official.TimeoutSeconds = 120
	}
	if config.Watch.DebounceMs == 0 {
		config.Watch.DebounceMs = 500
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values for correctness and basic
// command-injection hygiene, since the official command is executed.
func validateConfig(config *Config) error {
	switch config.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output format must be text or json, got %q", config.Output.Format)
	}

	if err := validatePath(config.Paths.ConfigDir); err != nil {
		return fmt.Errorf("invalid config_dir %q: %w", config.Paths.ConfigDir, err)
	}
	if err := validatePath(config.Paths.StorageDir); err != nil {
		return fmt.Errorf("invalid storage_dir %q: %w", config.Paths.StorageDir, err)
	}

	if config.Official.TimeoutSeconds < 0 {
		return fmt.Errorf("official timeout must not be negative")
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(config.Official.Command, char) {
			return fmt.Errorf("official command contains dangerous character: %s", char)
		}
	}

	return nil
}

// validatePath validates a file path.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
