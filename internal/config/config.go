// Package config provides configuration management for hivesnap.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
)

// Config represents the application configuration.
type Config struct {
	Version   int                 `yaml:"version"`
	Accounts  map[string][]string `yaml:"accounts"`
	Snapshots SnapshotsConfig     `yaml:"snapshots"`
	Cache     CacheConfig         `yaml:"cache"`
	Endpoints EndpointsConfig     `yaml:"endpoints"`
	Batch     BatchConfig         `yaml:"batch"`
	Output    OutputConfig        `yaml:"output"`
	Logging   LoggingConfig       `yaml:"logging"`
}

// SnapshotsConfig defines where snapshot files live.
type SnapshotsConfig struct {
	Dir string `yaml:"dir"`
}

// CacheConfig defines cache persistence and expiry.
type CacheConfig struct {
	Dir        string `yaml:"dir"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// EndpointsConfig defines the remote API endpoints.
type EndpointsConfig struct {
	Engine    string   `yaml:"engine"`
	Condenser []string `yaml:"condenser"`
	CoinGecko string   `yaml:"coingecko"`
}

// BatchConfig defines batch run pacing.
type BatchConfig struct {
	DelaySeconds int `yaml:"delay_seconds"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	Color string `yaml:"color"`
	Quiet bool   `yaml:"quiet"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version:  1,
		Accounts: map[string][]string{},
		Snapshots: SnapshotsConfig{
			Dir: "snapshots",
		},
		Cache: CacheConfig{
			Dir:        "cache",
			TTLMinutes: 15,
		},
		Endpoints: EndpointsConfig{},
		Batch: BatchConfig{
			DelaySeconds: 5,
		},
		Output: OutputConfig{
			Color: "auto",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the specified file, layered over the
// defaults.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path under dir.
func Path(dir string) string {
	return filepath.Join(dir, "config.yaml")
}

// CacheTTL returns the configured cache expiry as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// BatchDelay returns the configured inter-account delay as a duration.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.Batch.DelaySeconds) * time.Second
}

// Validate checks the configuration for values a run cannot proceed
// with.
func (c *Config) Validate() error {
	if c.Cache.TTLMinutes < 0 {
		return fmt.Errorf("cache ttl_minutes must not be negative, got %d", c.Cache.TTLMinutes)
	}
	if c.Batch.DelaySeconds < 0 {
		return fmt.Errorf("batch delay_seconds must not be negative, got %d", c.Batch.DelaySeconds)
	}
	for account := range c.Accounts {
		if err := hive.ValidateAccountName(account); err != nil {
			return fmt.Errorf("invalid account %q: %w", account, err)
		}
	}
	return nil
}
