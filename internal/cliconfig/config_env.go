package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (CFGHIST_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("config-dir", os.Getenv("CFGHIST_CONFIG_DIR"), &cfg.ConfigDir)
	s.setString("main-file", os.Getenv("CFGHIST_MAIN_FILE"), &cfg.MainFile)
	s.setString("server-config", os.Getenv("CFGHIST_SERVER_CONFIG"), &cfg.ServerConfig)
	s.setString("log-level", os.Getenv("CFGHIST_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("metrics-file", os.Getenv("CFGHIST_METRICS_FILE"), &cfg.MetricsFile)

	if err := s.setIntFromString("max-history", os.Getenv("CFGHIST_MAX_HISTORY"), &cfg.MaxHistory); err != nil {
		return err
	}
	if err := s.setDuration("debounce", os.Getenv("CFGHIST_WATCH_DEBOUNCE"), &cfg.WatchDebounce); err != nil {
		return err
	}

	s.setBoolFromString("read-only", os.Getenv("CFGHIST_READ_ONLY"), &cfg.ReadOnly)

	return nil
}
