package configfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bft-labs/cfghist/internal/domain"
	"github.com/bft-labs/cfghist/pkg/history"
)

var versionNamePattern = regexp.MustCompile(`^v[1-9][0-9]*$`)

// Kind tells how a raw name was resolved.
type Kind int

const (
	KindMain Kind = iota
	KindSlot
	KindVersion
	KindFile
	KindSnapshot
	KindExternal
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindMain:
		return "main"
	case KindSlot:
		return "slot"
	case KindVersion:
		return "version"
	case KindFile:
		return "file"
	case KindSnapshot:
		return "snapshot"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Resolution is a resolved boot file.
type Resolution struct {
	Path string
	Kind Kind
}

// External reports whether the boot file lies outside the config directory.
// External files are read at boot and never written.
func (r Resolution) External() bool { return r.Kind == KindExternal }

// ResolveBootFile turns a raw config name into the file to boot from.
// Every failure wraps domain.ErrIllegalState and is fatal for the boot.
func ResolveBootFile(layout history.Layout, rawName string) (Resolution, error) {
	info, err := os.Stat(layout.ConfigDir)
	if err != nil {
		return Resolution{}, domain.IllegalStatef("config dir %s: %v", layout.ConfigDir, err)
	}
	if !info.IsDir() {
		return Resolution{}, domain.IllegalStatef("config dir %s is not a directory", layout.ConfigDir)
	}

	if rawName == "" {
		return Resolution{Path: layout.MainFile(), Kind: KindMain}, nil
	}

	if slot, ok := domain.ParseSlot(rawName); ok {
		path := layout.SlotFile(slot)
		if !isRegularFile(path) {
			return Resolution{}, domain.IllegalStatef("no %s configuration in history %s", slot, layout.Root())
		}
		return Resolution{Path: path, Kind: KindSlot}, nil
	}

	if versionNamePattern.MatchString(rawName) {
		n, err := strconv.Atoi(rawName[1:])
		if err != nil || n < 1 {
			return Resolution{}, domain.IllegalStatef("invalid version %q", rawName)
		}
		path := layout.VersionFile(n)
		if !isRegularFile(path) {
			return Resolution{}, domain.IllegalStatef("version %d not found in %s", n, layout.CurrentDir())
		}
		return Resolution{Path: path, Kind: KindVersion}, nil
	}

	if filepath.IsAbs(rawName) {
		path := filepath.Clean(rawName)
		if !isRegularFile(path) {
			return Resolution{}, domain.IllegalStatef("configuration file %s not found", path)
		}
		if layout.Contains(path) {
			return Resolution{Path: path, Kind: kindOf(layout, path)}, nil
		}
		return Resolution{Path: path, Kind: KindExternal}, nil
	}

	if strings.ContainsAny(rawName, `/\`) {
		path := filepath.Join(layout.ConfigDir, rawName)
		if !layout.Contains(path) {
			return Resolution{}, domain.IllegalStatef("%s resolves outside %s", rawName, layout.ConfigDir)
		}
		if !isRegularFile(path) {
			return Resolution{}, domain.IllegalStatef("configuration file %s not found", path)
		}
		return Resolution{Path: path, Kind: kindOf(layout, path)}, nil
	}

	for _, dir := range []string{layout.ConfigDir, layout.Root(), layout.CurrentDir()} {
		path := filepath.Join(dir, rawName)
		if isRegularFile(path) {
			return Resolution{Path: path, Kind: kindOf(layout, path)}, nil
		}
	}

	path, err := history.NewManager(layout, nil).FindSnapshot(rawName)
	if err == nil {
		return Resolution{Path: path, Kind: KindSnapshot}, nil
	}
	if errors.Is(err, domain.ErrIllegalState) {
		return Resolution{}, err
	}
	return Resolution{}, domain.IllegalStatef("configuration file %s not found in %s", rawName, layout.ConfigDir)
}

// resolveFor resolves rawName and rejects external files when Store would
// rewrite the main file: the next boot would not read what was stored.
func resolveFor(layout history.Layout, rawName string, persistent bool) (Resolution, error) {
	r, err := ResolveBootFile(layout, rawName)
	if err != nil {
		return Resolution{}, err
	}
	if persistent && r.External() {
		return Resolution{}, domain.IllegalStatef("external configuration file %s requires read-only mode", r.Path)
	}
	return r, nil
}

// kindOf classifies a path already known to be inside the config directory.
func kindOf(layout history.Layout, path string) Kind {
	path = filepath.Clean(path)
	if path == layout.MainFile() {
		return KindMain
	}
	for _, slot := range domain.Slots {
		if path == layout.SlotFile(slot) {
			return KindSlot
		}
	}
	if filepath.Dir(path) == layout.CurrentDir() {
		if _, ok := layout.ParseVersion(filepath.Base(path)); ok {
			return KindVersion
		}
	}
	if filepath.Dir(path) == layout.SnapshotDir() {
		return KindSnapshot
	}
	return KindFile
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// readBootContent reads the boot file. A missing main file yields no
// content; any other missing file was already rejected by the resolver.
func readBootContent(r Resolution) ([]byte, bool, error) {
	b, err := os.ReadFile(r.Path)
	if err != nil {
		if r.Kind == KindMain && errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}
