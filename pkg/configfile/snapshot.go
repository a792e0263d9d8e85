package configfile

import (
	"github.com/bft-labs/cfghist/internal/domain"
	"github.com/bft-labs/cfghist/pkg/log"
)

// SnapshotList describes the snapshot directory.
type SnapshotList struct {
	Dir   string
	Names []string
}

// TakeSnapshot saves the content in effect into the snapshot directory and
// returns the snapshot path. An empty name generates a timestamped one.
func (c *ConfigurationFile) TakeSnapshot(name string) (string, error) {
	content, err := c.currentContent()
	if err == nil {
		var path string
		path, err = c.history.WriteSnapshot(name, content, c.opts.now())
		if err == nil {
			c.opts.metrics.ObserveSnapshot("take", nil)
			return path, nil
		}
		err = &domain.PersistError{Op: "take snapshot", Path: c.layout.SnapshotDir(), Err: err}
	}
	c.opts.metrics.ObserveSnapshot("take", err)
	c.logger.Error("snapshot failed", log.Err(err))
	return "", err
}

// ListSnapshots returns the snapshot directory and the sorted snapshot names.
func (c *ConfigurationFile) ListSnapshots() (SnapshotList, error) {
	names, err := c.history.Snapshots()
	if err != nil {
		return SnapshotList{}, err
	}
	return SnapshotList{Dir: c.layout.SnapshotDir(), Names: names}, nil
}

// DeleteSnapshot removes the snapshots whose names start with prefix, or
// all snapshots when prefix is "all". It fails with
// domain.ErrSnapshotNotFound when nothing matches.
func (c *ConfigurationFile) DeleteSnapshot(prefix string) error {
	_, err := c.history.DeleteSnapshots(prefix)
	c.opts.metrics.ObserveSnapshot("delete", err)
	return err
}
