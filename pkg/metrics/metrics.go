// Package metrics exposes prometheus instruments for configuration
// persistence. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cfghist"

// Metrics holds the instruments for one registry.
type Metrics struct {
	storeTotal       *prometheus.CounterVec
	storeDuration    prometheus.Histogram
	versionsPruned   prometheus.Counter
	versionsRetained prometheus.Gauge
	snapshotOps      *prometheus.CounterVec
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		storeTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_total",
			Help:      "Total configuration store operations by status",
		}, []string{"status"}),
		storeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_duration_seconds",
			Help:      "Time to persist a configuration including history rotation",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		versionsPruned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "versions_pruned_total",
			Help:      "Total history versions removed by the retention cap",
		}),
		versionsRetained: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "versions_retained",
			Help:      "Number of history versions currently retained",
		}),
		snapshotOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_operations_total",
			Help:      "Total snapshot operations by type and status",
		}, []string{"operation", "status"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStore records the outcome and duration of one store.
func (m *Metrics) ObserveStore(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.storeTotal.WithLabelValues(status(err)).Inc()
	m.storeDuration.Observe(d.Seconds())
}

// ObserveVersions records a version append.
func (m *Metrics) ObserveVersions(pruned, retained int) {
	if m == nil {
		return
	}
	m.versionsPruned.Add(float64(pruned))
	m.versionsRetained.Set(float64(retained))
}

// ObserveSnapshot records a snapshot operation (take, delete).
func (m *Metrics) ObserveSnapshot(operation string, err error) {
	if m == nil {
		return
	}
	m.snapshotOps.WithLabelValues(operation, status(err)).Inc()
}
