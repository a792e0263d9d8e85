package configfile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bft-labs/cfghist/internal/domain"
)

// DefaultMaxVersions is the default number of versions kept in current/.
const DefaultMaxVersions = 100

// DefaultMainFileName is used when Config.MainFileName is empty.
const DefaultMainFileName = "standard.xml"

// Config holds the configuration for a ConfigurationFile.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// ConfigDir is the directory holding the main file and its history.
	// It must exist before New is called.
	ConfigDir string

	// MainFileName is the canonical configuration file inside ConfigDir.
	MainFileName string

	// RawName selects the boot file: empty for the main file, a slot name
	// (boot, last, initial), a version (v<N>), a file name, a snapshot
	// prefix, or a path.
	RawName string

	// ReadOnly keeps Store from rewriting the main file. History is
	// maintained either way. The zero value persists.
	ReadOnly bool

	// MaxVersions caps the number of retained versions.
	MaxVersions int
}

// DefaultConfig returns a Config with default values.
// ConfigDir must still be set.
func DefaultConfig() Config {
	return Config{
		MainFileName: DefaultMainFileName,
		MaxVersions:  DefaultMaxVersions,
	}
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.MainFileName == "" {
		c.MainFileName = DefaultMainFileName
	}
	if c.MaxVersions == 0 {
		c.MaxVersions = DefaultMaxVersions
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ConfigDir == "" {
		return fmt.Errorf("%w: config dir is required", domain.ErrInvalidConfig)
	}
	if c.MainFileName == "" {
		return fmt.Errorf("%w: main file name is required", domain.ErrInvalidConfig)
	}
	if strings.ContainsAny(c.MainFileName, `/\`) || c.MainFileName != filepath.Base(c.MainFileName) ||
		c.MainFileName == "." || c.MainFileName == ".." {
		return fmt.Errorf("%w: main file name %q must not contain a path", domain.ErrInvalidConfig, c.MainFileName)
	}
	if c.MaxVersions < 0 {
		return fmt.Errorf("%w: max versions must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}
