package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netaudit/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Conf", cfg.ConfDir)
	assert.Equal(t, DefaultTrials, cfg.Demand.Trials)
	assert.Nil(t, cfg.Demand.Seed)
	assert.Equal(t, time.Second, cfg.Discovery.TimeUnit.Duration())
	assert.Equal(t, "Conf", cfg.CollectRoot())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "full",
			input: `
conf_dir: /srv/conf
output:
  json: out/summary.json
  sqlite: out/run.db
demand:
  trials: 20
  demands_kbps: [50000, 70000]
  seed: 42
discovery:
  time_unit: 50ms
logging:
  level: debug
  format: json
collect:
  inventory: hosts.yml
  root: /srv/collected
  concurrency: 10
  command_timeout: 1m
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/srv/conf", cfg.ConfDir)
				assert.Equal(t, "out/summary.json", cfg.Output.JSON)
				assert.Equal(t, 20, cfg.Demand.Trials)
				assert.Equal(t, []int{50000, 70000}, cfg.Demand.DemandsKbps)
				require.NotNil(t, cfg.Demand.Seed)
				assert.Equal(t, uint64(42), *cfg.Demand.Seed)
				assert.Equal(t, 50*time.Millisecond, cfg.Discovery.TimeUnit.Duration())
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 10, cfg.Collect.Concurrency)
				assert.Equal(t, time.Minute, cfg.Collect.CommandTimeout.Duration())
				assert.Equal(t, 10*time.Second, cfg.Collect.ConnectTimeout.Duration(), "unset keeps default")
				assert.Equal(t, "/srv/collected", cfg.CollectRoot())
			},
		},
		{
			name:  "empty document keeps defaults",
			input: "",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultConfig(), cfg)
			},
		},
		{
			name:  "records file",
			input: "records_file: records.yaml\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Contains(t, cfg.Summary(), "records_file=records.yaml")
			},
		},
		{name: "bad duration", input: "discovery:\n  time_unit: soon\n", wantErr: true},
		{name: "negative trials", input: "demand:\n  trials: -1\n", wantErr: true},
		{name: "zero demand", input: "demand:\n  demands_kbps: [0]\n", wantErr: true},
		{name: "bad level", input: "logging:\n  level: loud\n", wantErr: true},
		{name: "bad format", input: "logging:\n  format: xml\n", wantErr: true},
		{name: "not yaml", input: "conf_dir: [unclosed", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsKind(err, domain.KindParse))
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	seed := uint64(7)
	cfg := DefaultConfig()
	cfg.Demand.Seed = &seed
	cfg.Discovery.TimeUnit = Duration(250 * time.Millisecond)
	require.NoError(t, cfg.Save(configPath))

	loaded, path, err := LoadFromPath(configPath)
	require.NoError(t, err)
	assert.Equal(t, configPath, path)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFromPathMissing(t *testing.T) {
	_, _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConfigRoot))
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))
	t.Setenv("XDG_CONFIG_HOME", "")

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { os.Chdir(oldWd) })

	t.Run("none", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		if _, err := os.Stat(filepath.Join("/etc", ConfigDirName, "config.yaml")); err == nil {
			t.Skip("system config present")
		}
		assert.Equal(t, "", FindConfigPath())
	})

	t.Run("home", func(t *testing.T) {
		homeConfig := filepath.Join(tmpDir, "home", ".config", ConfigDirName, "config.yaml")
		require.NoError(t, DefaultConfig().Save(homeConfig))
		assert.Equal(t, homeConfig, FindConfigPath())
		assert.Equal(t, homeConfig, DefaultConfigPath())
	})

	t.Run("working directory wins over home", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Save(filepath.Join(tmpDir, ConfigFileName)))
		assert.Equal(t, ConfigFileName, filepath.Base(FindConfigPath()))
	})

	t.Run("env wins when it exists", func(t *testing.T) {
		explicit := filepath.Join(tmpDir, "explicit.yaml")
		require.NoError(t, DefaultConfig().Save(explicit))
		t.Setenv(EnvConfigPath, explicit)
		assert.Equal(t, explicit, FindConfigPath())
	})

	t.Run("search order", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/x/explicit.yaml")
		paths := SearchPaths()
		require.Len(t, paths, 4)
		assert.Equal(t, "/x/explicit.yaml", paths[0])
		assert.Equal(t, ConfigFileName, filepath.Base(paths[1]))
		assert.Equal(t, filepath.Join("/etc", ConfigDirName, "config.yaml"), paths[3])
	})

	t.Run("missing env falls back", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
		assert.Equal(t, ConfigFileName, filepath.Base(FindConfigPath()))
	})
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)
	assert.Equal(t, 5*time.Minute, d.Duration())

	marshaled, err := d.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "5m0s", marshaled)
}
