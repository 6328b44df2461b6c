// Package config loads the covtrack configuration file.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// StoreConfig holds the tracking store settings.
type StoreConfig struct {
	// Path to the SQLite record log.
	Path string `mapstructure:"path"`
}

// ReportConfig holds reporting settings.
type ReportConfig struct {
	// Threshold hides per-file deltas smaller than this ratio from the
	// published summary.
	Threshold float64 `mapstructure:"threshold"`
}

// DiffConfig holds diff engine settings.
type DiffConfig struct {
	// Epsilon is the minimum ratio difference for a file to count as
	// modified. Zero means any difference counts.
	Epsilon float64 `mapstructure:"epsilon"`
}

// Config is the root configuration for the covtrack tool.
type Config struct {
	Repo         string `mapstructure:"repo"`
	SourcePrefix string `mapstructure:"source_prefix"`
	LogLevel     string `mapstructure:"log_level"`

	Store  StoreConfig  `mapstructure:"store"`
	Report ReportConfig `mapstructure:"report"`
	Diff   DiffConfig   `mapstructure:"diff"`

	// Teams maps a repository name to its responsible team, used to label
	// tracking records for fleet-wide grouping.
	Teams map[string]string `mapstructure:"teams"`
}

// TeamFor returns the team associated with a repository, or empty.
func (c *Config) TeamFor(repo string) string {
	return c.Teams[repo]
}

// LoadConfig reads covtrack.yaml from the working directory or a configs
// directory. A missing file is not an error; defaults and COVTRACK_*
// environment variables still apply.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("covtrack")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("configs")
	v.AddConfigPath("../configs") // for go test runs inside packages

	v.SetEnvPrefix("covtrack")
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("store.path", "covtrack.db")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	return &cfg, nil
}
