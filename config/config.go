// Package config loads and reloads the engine's YAML configuration
// file (spec.md §6, §9.3). It does not load rule definitions from the
// configuration directories; it only records their paths.
// Grounded on github.com/prometheus/alertmanager/config: a plain YAML
// struct loaded with gopkg.in/yaml.v2, plus a Coordinator that
// broadcasts successful reloads to subscribers.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// HealthConfig is the health: block of the configuration file
// (spec.md §9.3).
type HealthConfig struct {
	Enabled bool `yaml:"enabled"`

	RunAtLeastEverySeconds int `yaml:"run_at_least_every_seconds"`

	PostponeAlarmsDuringHibernationForSeconds int `yaml:"postpone_alarms_during_hibernation_for_seconds"`

	ConfigurationDirectory      string `yaml:"configuration_directory"`
	StockConfigurationDirectory string `yaml:"stock_configuration_directory"`

	SilencersFile string `yaml:"silencers_file"`

	MaxLogEntries int `yaml:"max_log_entries"`
}

// Config is the top-level configuration document.
type Config struct {
	Health HealthConfig `yaml:"health"`

	original string
}

// RunAtLeastEvery returns the configured scheduling interval as a
// time.Duration, defaulting to 10 seconds when unset, matching
// netdata.conf's own default.
func (c Config) RunAtLeastEvery() time.Duration {
	if c.Health.RunAtLeastEverySeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Health.RunAtLeastEverySeconds) * time.Second
}

// HibernationDelay returns the configured postpone-during-hibernation
// window, defaulting to 60 seconds when unset.
func (c Config) HibernationDelay() time.Duration {
	if c.Health.PostponeAlarmsDuringHibernationForSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Health.PostponeAlarmsDuringHibernationForSeconds) * time.Second
}

// String returns the document as originally read, for logging/
// diffing on reload.
func (c Config) String() string {
	return c.original
}

// Load reads and parses the YAML document at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}
	return parse(string(raw))
}

func parse(raw string) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.original = raw
	return &cfg, nil
}
