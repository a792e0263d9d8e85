package configfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bft-labs/cfghist/internal/domain"
	"github.com/bft-labs/cfghist/pkg/history"
	"github.com/bft-labs/cfghist/pkg/log"
	"github.com/bft-labs/cfghist/pkg/persist"
)

// ConfigurationFile coordinates the boot file, the history directory and
// atomic replacement of the main file.
//
// One instance exists per server boot and is owned by whoever persists
// configuration. Calls are not synchronized; the owner serializes them.
type ConfigurationFile struct {
	config  Config
	layout  history.Layout
	history *history.Manager
	opts    options
	logger  log.Logger

	boot        Resolution
	bootContent []byte
	bootExists  bool

	// current is the content in effect: the boot content until the first
	// successful Store, then the last stored content.
	current []byte
	booted  bool
}

// New resolves the boot file, ensures the history directory exists and
// records the boot content in the history slots.
//
// Resolution failures wrap domain.ErrIllegalState; I/O failures while
// priming the history wrap domain.ErrPersistence.
func New(cfg Config, opts ...Option) (*ConfigurationFile, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dir, err := filepath.Abs(cfg.ConfigDir)
	if err != nil {
		return nil, domain.IllegalStatef("config dir %s: %v", cfg.ConfigDir, err)
	}
	cfg.ConfigDir = dir
	layout := history.NewLayout(cfg.ConfigDir, cfg.MainFileName)
	logger := o.logger.With(log.String("main_file", layout.MainFile()))

	boot, err := resolveFor(layout, cfg.RawName, !cfg.ReadOnly)
	if err != nil {
		return nil, err
	}

	c := &ConfigurationFile{
		config:  cfg,
		layout:  layout,
		history: history.NewManager(layout, logger),
		opts:    o,
		logger:  logger,
		boot:    boot,
	}

	if err := c.prime(); err != nil {
		return nil, err
	}

	logger.Info("configuration file resolved",
		log.String("boot_file", boot.Path),
		log.String("kind", boot.Kind.String()),
		log.Bool("persistent", !cfg.ReadOnly))
	return c, nil
}

// prime reads the boot content and seeds the boot and last slots.
func (c *ConfigurationFile) prime() error {
	content, exists, err := readBootContent(c.boot)
	if err != nil {
		return &domain.PersistError{Op: "read boot file", Path: c.boot.Path, Err: err}
	}
	c.bootContent = content
	c.bootExists = exists
	c.current = content

	created, err := c.history.EnsureStructure()
	if err != nil {
		return &domain.PersistError{Op: "create history", Path: c.layout.Root(), Err: err}
	}
	if !exists {
		return nil
	}

	if created {
		for _, slot := range []domain.Slot{domain.SlotBoot, domain.SlotLast} {
			if err := c.history.WriteSlot(slot, content); err != nil {
				return &domain.PersistError{Op: "prime " + slot.String(), Path: c.layout.SlotFile(slot), Err: err}
			}
		}
		return nil
	}

	if c.boot.Path != c.layout.SlotFile(domain.SlotBoot) {
		if err := c.history.WriteSlot(domain.SlotBoot, content); err != nil {
			return &domain.PersistError{Op: "prime boot", Path: c.layout.SlotFile(domain.SlotBoot), Err: err}
		}
	}
	return nil
}

// SuccessfulBoot marks the boot as complete. The first call records the
// boot content in the initial slot unless a previous boot already did;
// later calls do nothing.
func (c *ConfigurationFile) SuccessfulBoot() error {
	if c.booted {
		return nil
	}
	if c.bootExists && !c.history.SlotExists(domain.SlotInitial) {
		if err := c.history.WriteSlot(domain.SlotInitial, c.bootContent); err != nil {
			return &domain.PersistError{Op: "write initial", Path: c.layout.SlotFile(domain.SlotInitial), Err: err}
		}
	}
	c.booted = true
	c.logger.Debug("boot completed")
	return nil
}

// Store persists content. The content in effect before the call is
// appended to the version history, content becomes the last slot and, in
// persistent mode, atomically replaces the main file.
//
// On failure the main file keeps its previous content; history files
// written before the failing step stay written. The returned error wraps
// domain.ErrPersistence.
func (c *ConfigurationFile) Store(content []byte) error {
	start := c.opts.now()
	err := c.store(content)
	c.opts.metrics.ObserveStore(err, c.opts.now().Sub(start))
	if err != nil {
		c.logger.Error("configuration store failed", log.Err(err))
	}
	return err
}

func (c *ConfigurationFile) store(content []byte) error {
	prev, err := c.currentContent()
	if err != nil {
		return err
	}

	var res *persist.Resource
	if c.Persistent() {
		res, err = persist.Create(c.layout.MainFile(), content, persist.WithLogger(c.logger))
		if err != nil {
			return &domain.PersistError{Op: "stage", Path: c.layout.MainFile(), Err: err}
		}
		defer func() {
			if rbErr := res.Rollback(); rbErr != nil && !errors.Is(rbErr, domain.ErrResourceClosed) {
				c.logger.Warn("rollback failed", log.String("path", res.StagedPath()), log.Err(rbErr))
			}
		}()
	}

	v, pruned, err := c.history.AppendVersion(prev, c.config.MaxVersions)
	if err != nil {
		return &domain.PersistError{Op: "append version", Path: c.layout.CurrentDir(), Err: err}
	}
	if versions, err := c.history.Versions(); err == nil {
		c.opts.metrics.ObserveVersions(len(pruned), len(versions))
	}

	if err := c.history.WriteSlot(domain.SlotLast, content); err != nil {
		return &domain.PersistError{Op: "write last", Path: c.layout.SlotFile(domain.SlotLast), Err: err}
	}

	if res != nil {
		if err := res.Commit(); err != nil {
			return &domain.PersistError{Op: "commit", Path: c.layout.MainFile(), Err: err}
		}
	}

	c.current = bytes.Clone(content)
	c.logger.Info("configuration stored",
		log.Int("version", v.N),
		log.Int("pruned", len(pruned)),
		log.Bool("main_written", res != nil))
	return nil
}

// currentContent returns the content in effect before a store: the main
// file on disk in persistent mode, the in-memory content otherwise.
func (c *ConfigurationFile) currentContent() ([]byte, error) {
	if !c.Persistent() {
		return c.current, nil
	}
	b, err := os.ReadFile(c.layout.MainFile())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.current, nil
		}
		return nil, &domain.PersistError{Op: "read main file", Path: c.layout.MainFile(), Err: err}
	}
	return b, nil
}

// ResetBootFile selects the boot file for the next boot: the last slot
// when persistent is true, the main file otherwise.
func (c *ConfigurationFile) ResetBootFile(persistent bool) {
	if persistent {
		c.boot = Resolution{Path: c.layout.SlotFile(domain.SlotLast), Kind: KindSlot}
	} else {
		c.boot = Resolution{Path: c.layout.MainFile(), Kind: KindMain}
	}
	c.logger.Info("boot file reset", log.String("boot_file", c.boot.Path))
}

// ResetBootFileName resolves rawName as the boot file for the next boot.
// The current boot file is kept when resolution fails.
func (c *ConfigurationFile) ResetBootFileName(rawName string) error {
	r, err := resolveFor(c.layout, rawName, c.Persistent())
	if err != nil {
		return err
	}
	c.boot = r
	c.logger.Info("boot file reset",
		log.String("boot_file", r.Path),
		log.String("kind", r.Kind.String()))
	return nil
}

// BootFile returns the path of the boot file.
func (c *ConfigurationFile) BootFile() string { return c.boot.Path }

// BootResolution returns how the boot file was resolved.
func (c *ConfigurationFile) BootResolution() Resolution { return c.boot }

// BootContent returns the content read from the boot file at construction.
func (c *ConfigurationFile) BootContent() []byte { return bytes.Clone(c.bootContent) }

// IsExternal reports whether the boot file lies outside the config directory.
func (c *ConfigurationFile) IsExternal() bool { return c.boot.External() }

// Persistent reports whether Store rewrites the main file.
func (c *ConfigurationFile) Persistent() bool { return !c.config.ReadOnly }

// MainFile returns the path of the canonical configuration file.
func (c *ConfigurationFile) MainFile() string { return c.layout.MainFile() }

// HistoryDir returns the history directory.
func (c *ConfigurationFile) HistoryDir() string { return c.layout.Root() }

// SlotFile returns the file backing a history slot.
func (c *ConfigurationFile) SlotFile(slot domain.Slot) string { return c.layout.SlotFile(slot) }

// Layout returns the path layout.
func (c *ConfigurationFile) Layout() history.Layout { return c.layout }

// Versions returns the retained versions in ascending order.
func (c *ConfigurationFile) Versions() ([]history.Version, error) {
	return c.history.Versions()
}

// String describes the instance for logs.
func (c *ConfigurationFile) String() string {
	return fmt.Sprintf("ConfigurationFile{main=%s boot=%s persistent=%t}",
		c.layout.MainFile(), c.boot.Path, c.Persistent())
}
