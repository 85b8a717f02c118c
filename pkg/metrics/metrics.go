// Package metrics exposes scheduler and patch-stream measurements as
// Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/fiber/pkg/fiber"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "fiber").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for commit duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "fiber",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Recorder implements fiber.Recorder with Prometheus collectors.
// Registering two Recorders with the same registry panics.
type Recorder struct {
	unitsOfWork    prometheus.Counter
	slices         prometheus.Counter
	yields         prometheus.Counter
	commits        prometheus.Counter
	effects        *prometheus.CounterVec
	superseded     prometheus.Counter
	commitDuration prometheus.Histogram
	framesSent     prometheus.Counter
	frameBytes     prometheus.Counter
	clients        prometheus.Gauge
}

var _ fiber.Recorder = (*Recorder)(nil)

// New creates and registers the collectors.
func New(opts ...Option) *Recorder {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Recorder{
		unitsOfWork: counter("units_of_work_total", "Total number of fibers processed by the work loop"),
		slices:      counter("slices_total", "Total number of work loop slices that had work"),
		yields:      counter("yields_total", "Total number of slices that yielded with work remaining"),
		commits:     counter("commits_total", "Total number of commits"),
		superseded:  counter("superseded_roots_total", "Total number of in-flight passes abandoned by a newer render"),
		framesSent:  counter("frames_sent_total", "Total number of patch frames sent to clients"),
		frameBytes:  counter("frame_bytes_total", "Total bytes of patch frames sent to clients"),

		effects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effects_total",
			Help:        "Total number of effects applied at commit",
			ConstLabels: config.ConstLabels,
		}, []string{"effect"}),

		commitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Commit duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stream_clients",
			Help:        "Number of connected patch stream clients",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (r *Recorder) ObserveUnitOfWork() {
	r.unitsOfWork.Inc()
}

func (r *Recorder) ObserveSlice(yielded bool) {
	r.slices.Inc()
	if yielded {
		r.yields.Inc()
	}
}

func (r *Recorder) ObserveCommit(d time.Duration, counts fiber.CommitCounts) {
	r.commits.Inc()
	r.commitDuration.Observe(d.Seconds())
	r.effects.WithLabelValues("placement").Add(float64(counts.Placements))
	r.effects.WithLabelValues("update").Add(float64(counts.Updates))
	r.effects.WithLabelValues("deletion").Add(float64(counts.Deletions))
}

func (r *Recorder) ObserveSuperseded() {
	r.superseded.Inc()
}

// ObserveFrameSent records a patch frame written to a client.
func (r *Recorder) ObserveFrameSent(size int) {
	r.framesSent.Inc()
	r.frameBytes.Add(float64(size))
}

// SetClients records the number of connected stream clients.
func (r *Recorder) SetClients(n int) {
	r.clients.Set(float64(n))
}
