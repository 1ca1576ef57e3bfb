package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AIConfig holds settings for the schedule-parser LLM integration.
type AIConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// StorageConfig holds settings for the local key-value store.
type StorageConfig struct {
	// Path is the sqlite database file backing the key-value namespace.
	Path string `mapstructure:"path" yaml:"path"`

	// LatencyMs is the simulated minimum latency of repository calls.
	LatencyMs int `mapstructure:"latency_ms" yaml:"latency_ms"`
}

// SweeperConfig holds retention windows for the maintenance sweeper.
type SweeperConfig struct {
	// ArchiveAfterDays moves events older than this out of the live
	// collection into the archive.
	ArchiveAfterDays int `mapstructure:"archive_after_days" yaml:"archive_after_days"`

	// PruneCompletedAfterDays removes completed events older than this
	// from whatever remains live.
	PruneCompletedAfterDays int `mapstructure:"prune_completed_after_days" yaml:"prune_completed_after_days"`

	// MinIntervalDays is the minimum gap between two cleanup runs.
	MinIntervalDays int `mapstructure:"min_interval_days" yaml:"min_interval_days"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Sweeper SweeperConfig `mapstructure:"sweeper" yaml:"sweeper"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/stablemate/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "stablemate", "config.yaml")
}

// DefaultDatabasePath returns the default sqlite file location.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "stablemate.db")
	}
	return filepath.Join(home, ".config", "stablemate", "stablemate.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{
			Path:      DefaultDatabasePath(),
			LatencyMs: 10,
		},
		AI: AIConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
		},
		Sweeper: SweeperConfig{
			ArchiveAfterDays:        7,
			PruneCompletedAfterDays: 14,
			MinIntervalDays:         7,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("storage.path", DefaultDatabasePath())
	v.SetDefault("storage.latency_ms", 10)
	v.SetDefault("ai.model", "claude-sonnet-4-20250514")
	v.SetDefault("ai.max_tokens", 4096)
	v.SetDefault("sweeper.archive_after_days", 7)
	v.SetDefault("sweeper.prune_completed_after_days", 14)
	v.SetDefault("sweeper.min_interval_days", 7)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", cfg.Storage)
	v.Set("ai", cfg.AI)
	v.Set("sweeper", cfg.Sweeper)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
