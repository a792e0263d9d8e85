package history

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bft-labs/cfghist/internal/domain"
)

const (
	historySuffix   = "_history"
	currentDirName  = "current"
	snapshotDirName = "snapshot"
	defaultExt      = ".xml"
)

// Layout derives every path of a managed configuration file.
//
// For ConfigDir=/srv/config and MainFileName=standard.xml:
//
//	/srv/config/standard.xml
//	/srv/config/standard_xml_history/standard.boot.xml
//	/srv/config/standard_xml_history/standard.last.xml
//	/srv/config/standard_xml_history/standard.initial.xml
//	/srv/config/standard_xml_history/current/standard.v1.xml
//	/srv/config/standard_xml_history/snapshot/20240101-120000000standard.xml
type Layout struct {
	ConfigDir    string
	MainFileName string
}

// NewLayout returns the layout for mainFileName inside configDir.
func NewLayout(configDir, mainFileName string) Layout {
	return Layout{ConfigDir: filepath.Clean(configDir), MainFileName: mainFileName}
}

// MainFile returns the canonical configuration file.
func (l Layout) MainFile() string { return filepath.Join(l.ConfigDir, l.MainFileName) }

// Root returns the history directory.
func (l Layout) Root() string {
	return filepath.Join(l.ConfigDir, strings.ReplaceAll(l.MainFileName, ".", "_")+historySuffix)
}

// CurrentDir returns the directory holding numbered versions.
func (l Layout) CurrentDir() string { return filepath.Join(l.Root(), currentDirName) }

// SnapshotDir returns the directory holding named snapshots.
func (l Layout) SnapshotDir() string { return filepath.Join(l.Root(), snapshotDirName) }

// Base returns the main file name without its extension.
func (l Layout) Base() string {
	return strings.TrimSuffix(l.MainFileName, filepath.Ext(l.MainFileName))
}

// Ext returns the extension used for history files.
func (l Layout) Ext() string {
	if ext := filepath.Ext(l.MainFileName); ext != "" {
		return ext
	}
	return defaultExt
}

// SlotFile returns the file backing a history slot.
func (l Layout) SlotFile(slot domain.Slot) string {
	return filepath.Join(l.Root(), l.Base()+"."+string(slot)+l.Ext())
}

// VersionFile returns the file for version n.
func (l Layout) VersionFile(n int) string {
	return filepath.Join(l.CurrentDir(), l.versionName(n))
}

func (l Layout) versionName(n int) string {
	return fmt.Sprintf("%s.v%d%s", l.Base(), n, l.Ext())
}

// ParseVersion extracts N from a file name of the form <base>.v<N><ext>.
func (l Layout) ParseVersion(name string) (int, bool) {
	prefix := l.Base() + ".v"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, l.Ext()) {
		return 0, false
	}
	numStr := strings.TrimSuffix(strings.TrimPrefix(name, prefix), l.Ext())
	if numStr == "" || numStr[0] == '0' {
		return 0, false
	}
	for _, c := range numStr {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(numStr)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Contains reports whether path lies inside the configuration directory.
func (l Layout) Contains(path string) bool {
	rel, err := filepath.Rel(l.ConfigDir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
