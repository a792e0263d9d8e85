package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bft-labs/cfghist/internal/domain"
	"github.com/bft-labs/cfghist/pkg/log"
)

// defaultPerm is used for targets that do not exist yet.
const defaultPerm fs.FileMode = 0o600

// Resource is a staged write of a single file. The content lives in a
// temporary file next to the target until Commit renames it into place.
//
// Every Resource must reach exactly one terminal state through Commit or
// Rollback. Rollback after a successful Commit is a no-op, so
//
//	res, err := persist.Create(path, data)
//	if err != nil {
//	    return err
//	}
//	defer res.Rollback()
//	...
//	return res.Commit()
//
// releases the temp file on every exit path.
type Resource struct {
	target string
	tmp    string
	logger log.Logger

	committed bool
	closed    bool
}

// Option configures a Resource.
type Option func(*Resource)

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(logger log.Logger) Option {
	return func(r *Resource) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Create stages content for target. The temp file is created in the
// target's directory so the final rename stays on one filesystem.
func Create(target string, content []byte, opts ...Option) (*Resource, error) {
	r := &Resource{target: target, logger: log.NewNoopLogger()}
	for _, opt := range opts {
		opt(r)
	}

	dir := filepath.Dir(target)
	perm := defaultPerm
	if info, err := os.Stat(target); err == nil {
		if info.IsDir() {
			return nil, fmt.Errorf("stage %s: target is a directory", target)
		}
		perm = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", target, err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Cleanup on any error
	cleanupTmp := true
	defer func() {
		if cleanupTmp {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(content); err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		return nil, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return nil, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	cleanupTmp = false
	r.tmp = tmpPath
	return r, nil
}

// Target returns the path the resource commits to.
func (r *Resource) Target() string { return r.target }

// StagedPath returns the temp file holding the staged content.
func (r *Resource) StagedPath() string { return r.tmp }

// Commit atomically replaces the target with the staged content.
// A reader of the target sees either the old or the new content, never a
// partial write.
func (r *Resource) Commit() error {
	if r.closed {
		return domain.ErrResourceClosed
	}
	r.closed = true

	if err := os.Rename(r.tmp, r.target); err != nil {
		os.Remove(r.tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	r.committed = true

	if err := syncDir(filepath.Dir(r.target)); err != nil {
		// The rename already happened; the content is in place.
		r.logger.Warn("directory sync failed",
			log.String("path", r.target),
			log.Err(err))
	}
	return nil
}

// Rollback discards the staged content and leaves the target untouched.
// It returns nil when the resource was already committed and
// ErrResourceClosed when it was already rolled back.
func (r *Resource) Rollback() error {
	if r.committed {
		return nil
	}
	if r.closed {
		return domain.ErrResourceClosed
	}
	r.closed = true

	if err := os.Remove(r.tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove temp file: %w", err)
	}
	return nil
}

// WriteFile atomically replaces path with content.
func WriteFile(path string, content []byte, opts ...Option) error {
	res, err := Create(path, content, opts...)
	if err != nil {
		return err
	}
	defer res.Rollback()
	return res.Commit()
}

// syncDir syncs a directory so a completed rename survives a crash.
func syncDir(dirPath string) error {
	dir, err := os.Open(dirPath)
	if err != nil {
		return fmt.Errorf("open dir for sync: %w", err)
	}
	defer dir.Close()

	if err := dir.Sync(); err != nil {
		return fmt.Errorf("sync dir: %w", err)
	}
	return nil
}
