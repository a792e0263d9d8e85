// Package watch follows a source configuration file and stores every new
// version of it through a ConfigurationFile.
//
// Changes are detected with fsnotify on the file's directory so that
// editors replacing the file by rename are still seen. Bursts of events are
// debounced into one store.
package watch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/cfghist/pkg/log"
)

// DefaultDebounceDelay is used when Config.DebounceDelay is not positive.
const DefaultDebounceDelay = 100 * time.Millisecond

// StoreFunc persists new content. (*configfile.ConfigurationFile).Store
// satisfies it.
type StoreFunc func(content []byte) error

// Config holds configuration for a Watcher.
type Config struct {
	// Source is the file to follow.
	Source string

	// DebounceDelay is the quiet period after the last change before the
	// source is read and stored.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// Watcher stores the content of a source file whenever it changes.
type Watcher struct {
	source        string
	debounceDelay time.Duration
	store         StoreFunc
	logger        log.Logger

	last []byte
}

// New creates a Watcher. The source file's directory must exist.
func New(cfg Config, store StoreFunc, logger log.Logger) (*Watcher, error) {
	if cfg.Source == "" {
		return nil, errors.New("watch: source is required")
	}
	if store == nil {
		return nil, errors.New("watch: store func is required")
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	source, err := filepath.Abs(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	return &Watcher{
		source:        source,
		debounceDelay: cfg.DebounceDelay,
		store:         store,
		logger:        logger.With(log.String("source", source)),
	}, nil
}

// Source returns the absolute path of the followed file.
func (w *Watcher) Source() string { return w.source }

// Run watches until ctx is done. It returns nil on cancellation and an
// error if the watch cannot be set up or the event stream fails.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.source)); err != nil {
		return fmt.Errorf("watch: add %s: %w", filepath.Dir(w.source), err)
	}
	w.logger.Info("watching source file", log.Duration("debounce", w.debounceDelay))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	name := filepath.Base(w.source)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return errors.New("watch: event stream closed")
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounceDelay)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounceDelay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.storeSource()

		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("watch: error stream closed")
			}
			w.logger.Error("watcher error", log.Err(err))
		}
	}
}

// storeSource reads the source and stores it unless it is unchanged since
// the last store. Failures are logged; the watch continues.
func (w *Watcher) storeSource() {
	content, err := os.ReadFile(w.source)
	if err != nil {
		w.logger.Warn("read source failed", log.Err(err))
		return
	}
	if w.last != nil && bytes.Equal(content, w.last) {
		w.logger.Debug("source unchanged")
		return
	}
	if err := w.store(content); err != nil {
		w.logger.Error("store failed", log.Err(err))
		return
	}
	w.last = content
	w.logger.Info("source stored", log.Int("bytes", len(content)))
}
