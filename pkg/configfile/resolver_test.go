package configfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/cfghist/internal/domain"
	"github.com/bft-labs/cfghist/pkg/history"
)

// newResolverLayout builds a config dir with a main file, an extra file,
// all slots, two versions and one snapshot.
func newResolverLayout(t *testing.T) history.Layout {
	t.Helper()
	dir := t.TempDir()
	layout := history.NewLayout(dir, mainName)
	require.NoError(t, os.WriteFile(layout.MainFile(), []byte("main"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.xml"), []byte("other"), 0o644))

	m := history.NewManager(layout, nil)
	_, err := m.EnsureStructure()
	require.NoError(t, err)
	for _, slot := range domain.Slots {
		require.NoError(t, m.WriteSlot(slot, []byte(slot.String())))
	}
	for _, c := range []string{"v1", "v2"} {
		_, _, err := m.AppendVersion([]byte(c), 10)
		require.NoError(t, err)
	}
	_, err = m.WriteSnapshot("nightly", []byte("snap"), time.Now())
	require.NoError(t, err)
	return layout
}

func TestResolveBootFile(t *testing.T) {
	layout := newResolverLayout(t)
	dir := layout.ConfigDir

	tests := []struct {
		raw  string
		path string
		kind Kind
	}{
		{"", layout.MainFile(), KindMain},
		{"boot", layout.SlotFile(domain.SlotBoot), KindSlot},
		{"last", layout.SlotFile(domain.SlotLast), KindSlot},
		{"initial", layout.SlotFile(domain.SlotInitial), KindSlot},
		{"v2", layout.VersionFile(2), KindVersion},
		{"standard.xml", layout.MainFile(), KindMain},
		{"other.xml", filepath.Join(dir, "other.xml"), KindFile},
		{"standard.last.xml", layout.SlotFile(domain.SlotLast), KindSlot},
		{"standard.v1.xml", layout.VersionFile(1), KindVersion},
		{"night", filepath.Join(layout.SnapshotDir(), "nightly.xml"), KindSnapshot},
		{filepath.Join("standard_xml_history", "snapshot", "nightly.xml"), filepath.Join(layout.SnapshotDir(), "nightly.xml"), KindSnapshot},
		{filepath.Join(dir, "other.xml"), filepath.Join(dir, "other.xml"), KindFile},
		{layout.VersionFile(1), layout.VersionFile(1), KindVersion},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r, err := ResolveBootFile(layout, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.path, r.Path)
			assert.Equal(t, tt.kind, r.Kind, "got %s", r.Kind)
			assert.False(t, r.External())
		})
	}
}

func TestResolveBootFile_External(t *testing.T) {
	layout := newResolverLayout(t)
	external := filepath.Join(t.TempDir(), "elsewhere.xml")
	require.NoError(t, os.WriteFile(external, []byte("x"), 0o644))

	r, err := ResolveBootFile(layout, external)
	require.NoError(t, err)
	assert.Equal(t, external, r.Path)
	assert.True(t, r.External())
}

func TestResolveBootFile_Errors(t *testing.T) {
	layout := newResolverLayout(t)

	tests := []string{
		"crap.xml",
		"v9",
		"v0",
		"v01",
		"v007",
		filepath.Join("..", "escape.xml"),
		filepath.Join("sub", "missing.xml"),
		filepath.Join(t.TempDir(), "missing.xml"),
		"standard_xml_history",
	}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := ResolveBootFile(layout, raw)
			assert.ErrorIs(t, err, domain.ErrIllegalState)
		})
	}
}

func TestResolveBootFile_MissingHistory(t *testing.T) {
	layout := history.NewLayout(t.TempDir(), mainName)

	r, err := ResolveBootFile(layout, "")
	require.NoError(t, err, "a missing main file is allowed")
	assert.Equal(t, KindMain, r.Kind)

	for _, raw := range []string{"boot", "last", "initial", "v1"} {
		_, err := ResolveBootFile(layout, raw)
		assert.ErrorIs(t, err, domain.ErrIllegalState, raw)
	}
}

func TestResolveBootFile_BadConfigDir(t *testing.T) {
	missing := history.NewLayout(filepath.Join(t.TempDir(), "nope"), mainName)
	_, err := ResolveBootFile(missing, "")
	assert.ErrorIs(t, err, domain.ErrIllegalState)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = ResolveBootFile(history.NewLayout(file, mainName), "")
	assert.ErrorIs(t, err, domain.ErrIllegalState)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "main", KindMain.String())
	assert.Equal(t, "external", KindExternal.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
