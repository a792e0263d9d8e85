package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bft-labs/cfghist/internal/domain"
	"github.com/bft-labs/cfghist/pkg/log"
	"github.com/bft-labs/cfghist/pkg/persist"
)

// snapshotTimeFormat is yyyyMMdd-HHmmssSSS.
const snapshotTimeFormat = "20060102-150405.000"

// Version is one numbered entry of the version history.
type Version struct {
	N    int
	Path string
}

// Manager maintains the history directory of one configuration file.
// It performs no locking; callers serialize writes.
type Manager struct {
	layout Layout
	logger log.Logger
}

// NewManager creates a Manager for layout.
func NewManager(layout Layout, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Manager{
		layout: layout,
		logger: logger.With(log.String("history_dir", layout.Root())),
	}
}

// Layout returns the managed layout.
func (m *Manager) Layout() Layout { return m.layout }

// EnsureStructure creates the history, current and snapshot directories.
// created reports whether the history directory did not exist before.
func (m *Manager) EnsureStructure() (created bool, err error) {
	root := m.layout.Root()
	info, err := os.Stat(root)
	switch {
	case err == nil && !info.IsDir():
		return false, fmt.Errorf("history path %s is not a directory", root)
	case errors.Is(err, fs.ErrNotExist):
		created = true
	case err != nil:
		return false, fmt.Errorf("stat history dir: %w", err)
	}

	for _, dir := range []string{root, m.layout.CurrentDir(), m.layout.SnapshotDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if created {
		m.logger.Info("created history directory")
	}
	return created, nil
}

// WriteSlot atomically overwrites a slot file.
func (m *Manager) WriteSlot(slot domain.Slot, content []byte) error {
	if err := persist.WriteFile(m.layout.SlotFile(slot), content, persist.WithLogger(m.logger)); err != nil {
		return fmt.Errorf("write %s slot: %w", slot, err)
	}
	m.logger.Debug("history slot written", log.String("slot", slot.String()))
	return nil
}

// ReadSlot returns the content of a slot file.
func (m *Manager) ReadSlot(slot domain.Slot) ([]byte, error) {
	return os.ReadFile(m.layout.SlotFile(slot))
}

// SlotExists reports whether a slot file is present.
func (m *Manager) SlotExists(slot domain.Slot) bool {
	info, err := os.Stat(m.layout.SlotFile(slot))
	return err == nil && info.Mode().IsRegular()
}

// Versions returns the retained versions in ascending order.
// A missing current directory yields no versions.
func (m *Manager) Versions() ([]Version, error) {
	ents, err := os.ReadDir(m.layout.CurrentDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list versions: %w", err)
	}

	var out []Version
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		n, ok := m.layout.ParseVersion(e.Name())
		if !ok {
			continue
		}
		out = append(out, Version{N: n, Path: m.layout.VersionFile(n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].N < out[j].N })
	return out, nil
}

// AppendVersion writes content as version max+1 and then removes the
// lowest-numbered versions until at most maxVersions remain. Remaining
// versions keep their numbers. maxVersions <= 0 disables pruning.
func (m *Manager) AppendVersion(content []byte, maxVersions int) (Version, []Version, error) {
	versions, err := m.Versions()
	if err != nil {
		return Version{}, nil, err
	}

	next := 1
	if len(versions) > 0 {
		next = versions[len(versions)-1].N + 1
	}
	v := Version{N: next, Path: m.layout.VersionFile(next)}
	if err := persist.WriteFile(v.Path, content, persist.WithLogger(m.logger)); err != nil {
		return Version{}, nil, fmt.Errorf("write version %d: %w", next, err)
	}
	versions = append(versions, v)

	var pruned []Version
	if maxVersions > 0 {
		for len(versions) > maxVersions {
			oldest := versions[0]
			if err := os.Remove(oldest.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return v, pruned, fmt.Errorf("prune version %d: %w", oldest.N, err)
			}
			pruned = append(pruned, oldest)
			versions = versions[1:]
		}
	}

	m.logger.Debug("version appended",
		log.Int("version", v.N),
		log.Int("pruned", len(pruned)),
		log.Int("retained", len(versions)))
	return v, pruned, nil
}

// WriteSnapshot stores content in the snapshot directory and returns its path.
// An empty name produces <yyyyMMdd-HHmmssSSS><main file name>.
func (m *Manager) WriteSnapshot(name string, content []byte, now time.Time) (string, error) {
	if name == "" {
		stamp := strings.Replace(now.Format(snapshotTimeFormat), ".", "", 1)
		name = stamp + m.layout.MainFileName
	} else if !strings.HasSuffix(name, m.layout.Ext()) {
		name += m.layout.Ext()
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}

	if err := os.MkdirAll(m.layout.SnapshotDir(), 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(m.layout.SnapshotDir(), name)
	if err := persist.WriteFile(path, content, persist.WithLogger(m.logger)); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	m.logger.Info("snapshot taken", log.String("snapshot", name))
	return path, nil
}

// Snapshots returns the sorted snapshot file names.
func (m *Manager) Snapshots() ([]string, error) {
	ents, err := os.ReadDir(m.layout.SnapshotDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var names []string
	for _, e := range ents {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// FindSnapshot returns the single snapshot whose name starts with prefix.
func (m *Manager) FindSnapshot(prefix string) (string, error) {
	names, err := m.Snapshots()
	if err != nil {
		return "", err
	}
	var found []string
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			found = append(found, n)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: %q", domain.ErrSnapshotNotFound, prefix)
	case 1:
		return filepath.Join(m.layout.SnapshotDir(), found[0]), nil
	default:
		return "", fmt.Errorf("%w: prefix %q matches %d snapshots", domain.ErrIllegalState, prefix, len(found))
	}
}

// DeleteSnapshots removes snapshots starting with prefix, or every snapshot
// when prefix is "all". It returns the removed names.
func (m *Manager) DeleteSnapshots(prefix string) ([]string, error) {
	names, err := m.Snapshots()
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, n := range names {
		if prefix != "all" && !strings.HasPrefix(n, prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(m.layout.SnapshotDir(), n)); err != nil {
			return removed, fmt.Errorf("delete snapshot %s: %w", n, err)
		}
		removed = append(removed, n)
	}
	if len(removed) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrSnapshotNotFound, prefix)
	}
	m.logger.Info("snapshots deleted", log.Any("snapshots", removed))
	return removed, nil
}
