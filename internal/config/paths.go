package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "NETAUDIT_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "netaudit.yaml"
	// ConfigDirName is the per-user and system config directory name
	ConfigDirName = "netaudit"

	configBaseName = "config.yaml"
)

// SearchPaths lists config candidates from highest to lowest priority:
// $NETAUDIT_CONFIG, ./netaudit.yaml, $XDG_CONFIG_HOME/netaudit/config.yaml,
// ~/.config/netaudit/config.yaml and /etc/netaudit/config.yaml.
func SearchPaths() []string {
	var candidates []string
	if env := os.Getenv(EnvConfigPath); env != "" {
		candidates = append(candidates, env)
	}
	if abs, err := filepath.Abs(ConfigFileName); err == nil {
		candidates = append(candidates, abs)
	} else {
		candidates = append(candidates, ConfigFileName)
	}
	candidates = append(candidates, userConfigPaths()...)
	return append(candidates, filepath.Join("/etc", ConfigDirName, configBaseName))
}

// FindConfigPath returns the first existing candidate of SearchPaths, or ""
func FindConfigPath() string {
	for _, candidate := range SearchPaths() {
		if isRegularFile(candidate) {
			return candidate
		}
	}
	return ""
}

// DefaultConfigPath is where "netaudit init" writes a new config
func DefaultConfigPath() string {
	if user := userConfigPaths(); len(user) > 0 {
		return user[0]
	}
	return ConfigFileName
}

func userConfigPaths() []string {
	var out []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		out = append(out, filepath.Join(xdg, ConfigDirName, configBaseName))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		out = append(out, filepath.Join(home, ".config", ConfigDirName, configBaseName))
	}
	return out
}

// EnsureConfigDir creates the parent directory of configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0o755)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
