// Package cfghist keeps a durable history of a server's configuration file.
//
// Example usage:
//
//	cfg := cfghist.DefaultConfig()
//	cfg.ConfigDir = "/srv/server/config"
//	cf, err := cfghist.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// ... boot from cf.BootContent() ...
//	if err := cf.SuccessfulBoot(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := cf.Store(newContent); err != nil {
//	    log.Fatal(err)
//	}
package cfghist

import (
	"github.com/bft-labs/cfghist/internal/domain"
	"github.com/bft-labs/cfghist/pkg/configfile"
)

// Config holds the configuration for a ConfigurationFile.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = configfile.Config

// ConfigurationFile manages the boot file, history and main file.
type ConfigurationFile = configfile.ConfigurationFile

// Option configures optional behavior of a ConfigurationFile.
type Option = configfile.Option

// Slot names a fixed-purpose history file.
type Slot = domain.Slot

// History slots.
const (
	SlotBoot    = domain.SlotBoot
	SlotLast    = domain.SlotLast
	SlotInitial = domain.SlotInitial
)

// Errors returned by ConfigurationFile. Match them with errors.Is.
var (
	ErrIllegalState     = domain.ErrIllegalState
	ErrPersistence      = domain.ErrPersistence
	ErrResourceClosed   = domain.ErrResourceClosed
	ErrInvalidConfig    = domain.ErrInvalidConfig
	ErrSnapshotNotFound = domain.ErrSnapshotNotFound
)

// PersistError describes a failed write and wraps ErrPersistence.
type PersistError = domain.PersistError

// New resolves the boot file and prepares the history directory.
func New(cfg Config, opts ...Option) (*ConfigurationFile, error) {
	return configfile.New(cfg, opts...)
}

// DefaultConfig returns a Config with sensible default values.
// ConfigDir must be set before calling New.
func DefaultConfig() Config {
	return configfile.DefaultConfig()
}

// Option constructors.
var (
	WithLogger  = configfile.WithLogger
	WithMetrics = configfile.WithMetrics
	WithClock   = configfile.WithClock
)
