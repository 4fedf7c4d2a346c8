// Package config loads search-engine configuration from a YAML file plus
// environment overrides. The file carries the satellite catalog and search
// tuning; the environment carries operational settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/transit-finder/model"
)

// Duration is a time.Duration that decodes from YAML duration strings such
// as "45s" or "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// SatelliteEntry is one catalog entry in the config file.
type SatelliteEntry struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Line1 string `yaml:"line1"`
	Line2 string `yaml:"line2"`
}

// SearchSettings tunes the coarse-to-fine scan. Zero values keep the pinned
// defaults.
type SearchSettings struct {
	CoarseStep     Duration `yaml:"coarse_step"`
	FineHalfWindow Duration `yaml:"fine_half_window"`
	FineStep       Duration `yaml:"fine_step"`
	PruneMarginKm  float64  `yaml:"prune_margin_km"`
}

// Config holds all settings for one transit-finder process.
type Config struct {
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`
	MetricsAddr string   `yaml:"metrics_addr"` // empty disables the /metrics listener
	Workers     int      `yaml:"workers"`      // 0 selects NumCPU-1
	TaskTimeout Duration `yaml:"task_timeout"` // 0 disables the per-task deadline

	Search     SearchSettings   `yaml:"search"`
	Satellites []SatelliteEntry `yaml:"satellites"`
}

// Load reads the optional YAML file at path (empty path skips the file),
// then applies environment overrides and validates. Environment variables:
// LOG_LEVEL, LOG_FORMAT, TRANSIT_METRICS_ADDR, TRANSIT_WORKERS,
// TRANSIT_TASK_TIMEOUT.
func Load(path string) (*Config, error) {
	cfg := &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		TaskTimeout: Duration(30 * time.Second),
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.MetricsAddr = envOrDefault("TRANSIT_METRICS_ADDR", cfg.MetricsAddr)

	if v := os.Getenv("TRANSIT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errors.New("invalid TRANSIT_WORKERS")
		}
		cfg.Workers = n
	}
	if v := os.Getenv("TRANSIT_TASK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, errors.New("invalid TRANSIT_TASK_TIMEOUT")
		}
		cfg.TaskTimeout = Duration(d)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for i, s := range c.Satellites {
		sat := model.TrackedSatellite{ID: s.ID, Name: s.Name, Line1: s.Line1, Line2: s.Line2}
		if err := sat.Validate(); err != nil {
			return fmt.Errorf("satellites[%d]: %w", i, err)
		}
	}
	if c.Search.CoarseStep < 0 || c.Search.FineStep < 0 || c.Search.FineHalfWindow < 0 {
		return errors.New("search step settings must not be negative")
	}
	if c.Search.PruneMarginKm < 0 {
		return errors.New("search.prune_margin_km must not be negative")
	}
	return nil
}

// Catalog returns the configured satellites, falling back to the built-in
// catalog when the file lists none.
func (c *Config) Catalog() []model.TrackedSatellite {
	if len(c.Satellites) == 0 {
		return model.DefaultCatalog()
	}
	sats := make([]model.TrackedSatellite, 0, len(c.Satellites))
	for _, s := range c.Satellites {
		name := s.Name
		if name == "" {
			name = s.ID
		}
		sats = append(sats, model.TrackedSatellite{
			ID:    s.ID,
			Name:  name,
			Line1: s.Line1,
			Line2: s.Line2,
		})
	}
	return sats
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
