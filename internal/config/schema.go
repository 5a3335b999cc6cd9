package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"netaudit/internal/logging"
)

// Config is the root configuration structure
type Config struct {
	Version     int             `yaml:"version"`
	ConfDir     string          `yaml:"conf_dir"`
	RecordsFile string          `yaml:"records_file,omitempty"` // YAML records instead of conf_dir
	Output      OutputConfig    `yaml:"output"`
	Demand      DemandConfig    `yaml:"demand"`
	Discovery   DiscoveryConfig `yaml:"discovery"`
	Logging     logging.Config  `yaml:"logging"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Serve       ServeConfig     `yaml:"serve"`
	Collect     CollectConfig   `yaml:"collect"`
}

// OutputConfig selects the exporters of a run. Empty paths are skipped.
type OutputConfig struct {
	JSON   string `yaml:"json,omitempty"`
	YAML   string `yaml:"yaml,omitempty"`
	Graph  string `yaml:"graph,omitempty"`
	SQLite string `yaml:"sqlite,omitempty"`
	Quiet  bool   `yaml:"quiet,omitempty"` // suppress the console report
}

// DemandConfig tunes the synthetic demand simulation
type DemandConfig struct {
	Trials      int     `yaml:"trials"` // 0 = default
	DemandsKbps []int   `yaml:"demands_kbps,omitempty"`
	Seed        *uint64 `yaml:"seed,omitempty"` // nil = random per run
}

// DiscoveryConfig tunes the discovery simulation
type DiscoveryConfig struct {
	// TimeUnit scales the listen window (2 units) and poll interval (0.1 unit)
	TimeUnit Duration `yaml:"time_unit"`
}

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// ServeConfig holds HTTP view settings
type ServeConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// CollectConfig holds SSH collection settings
type CollectConfig struct {
	Inventory      string   `yaml:"inventory,omitempty"` // Ansible YAML inventory
	Root           string   `yaml:"root,omitempty"`      // defaults to conf_dir
	Concurrency    int      `yaml:"concurrency"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	CommandTimeout Duration `yaml:"command_timeout"`
	KnownHosts     string   `yaml:"known_hosts,omitempty"`
	Command        string   `yaml:"command,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
