// Package config holds the strata configuration, loaded from YAML with
// environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all strata configuration.
type Config struct {
	// Evaluation settings
	Engine EngineConfig `yaml:"engine"`

	// Snapshot persistence
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Watch mode
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig configures the evaluator.
type EngineConfig struct {
	// SemiNaive enables delta evaluation for recursive groups. Full
	// re-evaluation per pass stays the default.
	SemiNaive bool `yaml:"semi_naive"`
	// MaxPasses bounds passes per group; 0 disables the bound.
	MaxPasses int `yaml:"max_passes"`
}

// SnapshotConfig configures result persistence.
type SnapshotConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// WatchConfig configures the file watcher.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures the operator log.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			SemiNaive: false,
			MaxPasses: 0,
		},
		Snapshot: SnapshotConfig{
			Enabled:      false,
			DatabasePath: "data/strata.db",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the per-user config location, ~/.strata/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".strata", "config.yaml")
	}
	return filepath.Join(home, ".strata", "config.yaml")
}

// Load reads the YAML config at path. A missing file is not an error; the
// defaults come back instead. Environment overrides apply last either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("STRATA_SEMI_NAIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Engine.SemiNaive = b
		}
	}
	if v := os.Getenv("STRATA_MAX_PASSES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Engine.MaxPasses = n
		}
	}
	if v := os.Getenv("STRATA_SNAPSHOT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Snapshot.Enabled = b
		}
	}
	if path := os.Getenv("STRATA_DB_PATH"); path != "" {
		c.Snapshot.DatabasePath = path
	}
	if v := os.Getenv("STRATA_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv("STRATA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// GetDebounce returns the watch debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Validate rejects configurations the commands cannot honor.
func (c *Config) Validate() error {
	if c.Engine.MaxPasses < 0 {
		return fmt.Errorf("engine.max_passes must not be negative")
	}
	if c.Snapshot.Enabled && c.Snapshot.DatabasePath == "" {
		return fmt.Errorf("snapshot.database_path required when snapshots are enabled")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}
	return nil
}
