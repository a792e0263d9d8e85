package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ConfigDir     string `toml:"config_dir"`
	MainFile      string `toml:"main_file"`
	ServerConfig  string `toml:"server_config"`
	ReadOnly      *bool  `toml:"read_only"`
	MaxHistory    int    `toml:"max_history"`
	LogLevel      string `toml:"log_level"`
	MetricsFile   string `toml:"metrics_file"`
	WatchDebounce string `toml:"watch_debounce"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.cfghist/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".cfghist", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("config-dir", fc.ConfigDir, &cfg.ConfigDir)
	s.setString("main-file", fc.MainFile, &cfg.MainFile)
	s.setString("server-config", fc.ServerConfig, &cfg.ServerConfig)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("metrics-file", fc.MetricsFile, &cfg.MetricsFile)

	s.setInt("max-history", fc.MaxHistory, &cfg.MaxHistory)
	s.setBool("read-only", fc.ReadOnly, &cfg.ReadOnly)

	if err := s.setDuration("debounce", fc.WatchDebounce, &cfg.WatchDebounce); err != nil {
		return err
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
