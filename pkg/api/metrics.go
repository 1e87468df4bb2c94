package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures dispatcher metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "spendsync").
	Namespace string

	// Subsystem is the metrics subsystem (default: "dispatcher").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for write duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures dispatcher metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "spendsync",
		Subsystem: "dispatcher",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors updated by a Dispatcher.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	writesTotal        *prometheus.CounterVec
	writeDuration      *prometheus.HistogramVec
	inflightWrites     prometheus.Gauge
	overlappingWrites  *prometheus.CounterVec
	serverUpdatesTotal prometheus.Counter
}

// NewMetrics registers the dispatcher collectors.
//
// Metrics collected:
//   - spendsync_dispatcher_writes_total: writes by command and outcome
//   - spendsync_dispatcher_write_duration_seconds: time from send to settlement
//   - spendsync_dispatcher_inflight_writes: writes not yet settled
//   - spendsync_dispatcher_overlapping_writes_total: writes that touched a key
//     another in-flight write was already touching
//   - spendsync_dispatcher_server_updates_total: descriptors applied from
//     responses and push frames
//
// Registering twice on the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		writesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "writes_total",
			Help:        "Total number of settled write commands",
			ConstLabels: config.ConstLabels,
		}, []string{"command", "outcome"}),

		writeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "write_duration_seconds",
			Help:        "Write command duration from send to settlement in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"command"}),

		inflightWrites: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "inflight_writes",
			Help:        "Number of write commands awaiting settlement",
			ConstLabels: config.ConstLabels,
		}),

		overlappingWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "overlapping_writes_total",
			Help:        "Writes issued while another write on the same key was in flight",
			ConstLabels: config.ConstLabels,
		}, []string{"command"}),

		serverUpdatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "server_updates_total",
			Help:        "Total number of server-supplied descriptors applied",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) writeStarted(command Command, overlapping bool) {
	if m == nil {
		return
	}
	m.inflightWrites.Inc()
	if overlapping {
		m.overlappingWrites.WithLabelValues(string(command)).Inc()
	}
}

func (m *Metrics) writeSettled(command Command, outcome Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inflightWrites.Dec()
	m.writesTotal.WithLabelValues(string(command), outcome.String()).Inc()
	m.writeDuration.WithLabelValues(string(command)).Observe(elapsed.Seconds())
}

func (m *Metrics) serverUpdates(n int) {
	if m == nil || n == 0 {
		return
	}
	m.serverUpdatesTotal.Add(float64(n))
}
