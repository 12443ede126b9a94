// Package config holds the shared tool configuration: a YAML file layer
// with CLI-flag overrides resolved on top of built-in defaults.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable paths and processing settings.
type Config struct {
	// Paths
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
	LogFile   string `yaml:"log_file"`

	// Processing settings
	CacheSize         int     `yaml:"cache_size"`
	OverdrawThreshold float32 `yaml:"overdraw_threshold"`
	Workers           int     `yaml:"workers"`
	LogLevel          string  `yaml:"log_level"`
}

// Load reads a YAML config file. Fields not set in the file keep their
// zero values until Resolve fills in defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	InputDir  string
	OutputDir string
	Threshold float32
	Workers   int
}

// Resolve fills in any empty fields with defaults. CLI flags take priority
// when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Threshold > 0 {
		c.OverdrawThreshold = flags.Threshold
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.OutputDir == "" {
		c.OutputDir = c.InputDir
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 16
	}
	if c.OverdrawThreshold <= 0 {
		c.OverdrawThreshold = 1.05
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
