package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				ConfigDir:     "/srv/config",
				MainFile:      "domain.xml",
				ServerConfig:  "v3",
				ReadOnly:      &trueVal,
				MaxHistory:    20,
				LogLevel:      "debug",
				MetricsFile:   "/tmp/m.prom",
				WatchDebounce: "250ms",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				ConfigDir:     "/srv/config",
				MainFile:      "domain.xml",
				ServerConfig:  "v3",
				ReadOnly:      true,
				MaxHistory:    20,
				LogLevel:      "debug",
				MetricsFile:   "/tmp/m.prom",
				WatchDebounce: 250 * time.Millisecond,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				ConfigDir:  "/file/config",
				MaxHistory: 5,
			},
			changed: map[string]bool{"config-dir": true},
			initial: Config{
				ConfigDir:  "/flag/config",
				MaxHistory: 100,
			},
			expected: Config{
				ConfigDir:  "/flag/config", // unchanged because flag was set
				MaxHistory: 5,
			},
			wantErr: false,
		},
		{
			name: "zero values keep defaults",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    DefaultConfig(),
			expected:   DefaultConfig(),
			wantErr:    false,
		},
		{
			name: "invalid duration",
			fileConfig: FileConfig{
				WatchDebounce: "soon",
			},
			changed: map[string]bool{},
			initial: Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
config_dir = "/srv/config"
main_file = "domain.xml"
read_only = true
max_history = 25
watch_debounce = "1s"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.ConfigDir != "/srv/config" {
		t.Errorf("ConfigDir = %v, want /srv/config", fc.ConfigDir)
	}
	if fc.MainFile != "domain.xml" {
		t.Errorf("MainFile = %v, want domain.xml", fc.MainFile)
	}
	if fc.MaxHistory != 25 {
		t.Errorf("MaxHistory = %v, want 25", fc.MaxHistory)
	}
	if fc.WatchDebounce != "1s" {
		t.Errorf("WatchDebounce = %v, want 1s", fc.WatchDebounce)
	}
	if fc.ReadOnly == nil || *fc.ReadOnly != true {
		t.Errorf("ReadOnly = %v, want true", fc.ReadOnly)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
config_dir = "/test"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".cfghist") {
		t.Errorf("DefaultConfigPath() = %v, should contain .cfghist", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
