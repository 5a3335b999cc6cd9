// Package config loads the netaudit configuration file.
//
// Config file locations (priority order):
//  1. $NETAUDIT_CONFIG
//  2. ./netaudit.yaml
//  3. $XDG_CONFIG_HOME/netaudit/config.yaml
//  4. ~/.config/netaudit/config.yaml
//  5. /etc/netaudit/config.yaml
//
// Every setting has a default, so running without a file is valid.
// Command-line flags override file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"netaudit/internal/domain"
	"netaudit/internal/logging"
)

// Defaults
const (
	DefaultConfDir     = "Conf"
	DefaultTrials      = 6
	DefaultTimeUnit    = time.Second
	DefaultServeAddr   = ":8080"
	DefaultConcurrency = 5
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, domain.NewError(domain.KindConfigRoot, "LoadConfig", fmt.Errorf("read config: %w", err))
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Parse decodes and validates a config document
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, domain.NewError(domain.KindParse, "ParseConfig", fmt.Errorf("parse config: %w", err))
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, domain.NewError(domain.KindParse, "ParseConfig", err)
	}
	return cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the settings used when no file is found
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		ConfDir: DefaultConfDir,
		Demand: DemandConfig{
			Trials:      DefaultTrials,
			DemandsKbps: []int{1000, 5000, 10000, 20000, 40000},
		},
		Discovery: DiscoveryConfig{TimeUnit: Duration(DefaultTimeUnit)},
		Logging:   logging.Config{Level: "info", Format: "text"},
		Serve: ServeConfig{
			Addr:         DefaultServeAddr,
			ReadTimeout:  Duration(10 * time.Second),
			WriteTimeout: Duration(30 * time.Second),
		},
		Collect: CollectConfig{
			Concurrency:    DefaultConcurrency,
			ConnectTimeout: Duration(10 * time.Second),
			CommandTimeout: Duration(30 * time.Second),
		},
	}
}

// applyDefaults fills in values zeroed by the file
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Version == 0 {
		c.Version = d.Version
	}
	if c.ConfDir == "" {
		c.ConfDir = d.ConfDir
	}
	if len(c.Demand.DemandsKbps) == 0 {
		c.Demand.DemandsKbps = d.Demand.DemandsKbps
	}
	if c.Discovery.TimeUnit == 0 {
		c.Discovery.TimeUnit = d.Discovery.TimeUnit
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = d.Serve.Addr
	}
	if c.Serve.ReadTimeout == 0 {
		c.Serve.ReadTimeout = d.Serve.ReadTimeout
	}
	if c.Serve.WriteTimeout == 0 {
		c.Serve.WriteTimeout = d.Serve.WriteTimeout
	}
	if c.Collect.Concurrency == 0 {
		c.Collect.Concurrency = d.Collect.Concurrency
	}
	if c.Collect.ConnectTimeout == 0 {
		c.Collect.ConnectTimeout = d.Collect.ConnectTimeout
	}
	if c.Collect.CommandTimeout == 0 {
		c.Collect.CommandTimeout = d.Collect.CommandTimeout
	}
}

// Validate rejects settings no run could use
func (c *Config) Validate() error {
	var errs []error
	if c.Demand.Trials < 0 {
		errs = append(errs, fmt.Errorf("demand.trials must not be negative, got %d", c.Demand.Trials))
	}
	for _, d := range c.Demand.DemandsKbps {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("demand.demands_kbps must be positive, got %d", d))
			break
		}
	}
	if c.Discovery.TimeUnit < 0 {
		errs = append(errs, errors.New("discovery.time_unit must not be negative"))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	if c.Collect.Concurrency < 0 {
		errs = append(errs, errors.New("collect.concurrency must not be negative"))
	}
	return errors.Join(errs...)
}

// CollectRoot is where collected configs are written
func (c *Config) CollectRoot() string {
	if c.Collect.Root != "" {
		return c.Collect.Root
	}
	return c.ConfDir
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	source := "conf_dir=" + c.ConfDir
	if c.RecordsFile != "" {
		source = "records_file=" + c.RecordsFile
	}
	seed := "random"
	if c.Demand.Seed != nil {
		seed = fmt.Sprint(*c.Demand.Seed)
	}
	return fmt.Sprintf("Input: %s\nDemand: %d trials over %v kbps, seed %s\nDiscovery time unit: %s",
		source, c.Demand.Trials, c.Demand.DemandsKbps, seed, c.Discovery.TimeUnit.Duration())
}
