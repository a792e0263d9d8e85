package configfile

import (
	"time"

	"github.com/bft-labs/cfghist/pkg/log"
	"github.com/bft-labs/cfghist/pkg/metrics"
)

// Option configures optional behavior of a ConfigurationFile.
type Option func(*options)

type options struct {
	logger  log.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
		now:    time.Now,
	}
}

// WithLogger sets the logger. If not provided, a no-op logger is used.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records store and snapshot operations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock overrides the time source used for snapshot names and
// store durations.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
