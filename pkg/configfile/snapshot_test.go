package configfile

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/cfghist/internal/domain"
	"github.com/bft-labs/cfghist/pkg/metrics"
)

func TestSnapshots(t *testing.T) {
	dir := newConfigDir(t)
	reg := prometheus.NewRegistry()
	cf, err := New(Config{ConfigDir: dir, MainFileName: mainName}, WithMetrics(metrics.New(reg)))
	require.NoError(t, err)
	require.NoError(t, cf.SuccessfulBoot())
	require.NoError(t, cf.Store([]byte("One")))

	path, err := cf.TakeSnapshot("release")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cf.Layout().SnapshotDir(), "release.xml"), path)
	assert.Equal(t, "One", content(t, path))

	list, err := cf.ListSnapshots()
	require.NoError(t, err)
	assert.Equal(t, cf.Layout().SnapshotDir(), list.Dir)
	assert.Equal(t, []string{"release.xml"}, list.Names)

	// A snapshot prefix is a valid boot name.
	fromSnap := newConfigurationFile(t, dir, "rel", false, 10)
	assert.Equal(t, KindSnapshot, fromSnap.BootResolution().Kind)
	assert.Equal(t, "One", string(fromSnap.BootContent()))

	assert.ErrorIs(t, cf.DeleteSnapshot("nothing"), domain.ErrSnapshotNotFound)
	require.NoError(t, cf.DeleteSnapshot("all"))

	list, err = cf.ListSnapshots()
	require.NoError(t, err)
	assert.Empty(t, list.Names)

	expected := `
# HELP cfghist_snapshot_operations_total Total snapshot operations by type and status
# TYPE cfghist_snapshot_operations_total counter
cfghist_snapshot_operations_total{operation="delete",status="error"} 1
cfghist_snapshot_operations_total{operation="delete",status="ok"} 1
cfghist_snapshot_operations_total{operation="take",status="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "cfghist_snapshot_operations_total"))
}

func TestTakeSnapshot_NonPersistentUsesStoredContent(t *testing.T) {
	dir := newConfigDir(t)
	cf := newConfigurationFile(t, dir, "", false, 10)
	require.NoError(t, cf.Store([]byte("memory")))

	path, err := cf.TakeSnapshot("nb")
	require.NoError(t, err)
	assert.Equal(t, "memory", content(t, path))
	assert.Equal(t, "std", content(t, cf.MainFile()))
}

func TestTakeSnapshot_InvalidName(t *testing.T) {
	cf := newConfigurationFile(t, newConfigDir(t), "", true, 10)
	_, err := cf.TakeSnapshot("a/b")
	assert.ErrorIs(t, err, domain.ErrPersistence)
}
