// Package metrics exports what an fx.Runtime does as Prometheus metrics.
//
// Metrics collected:
//   - fxgraph_dispatches_total: Counter of dispatches by status
//   - fxgraph_dispatch_duration_seconds: Histogram of dispatch duration
//   - fxgraph_fx_executions_total: Counter of fx executions by fx and status
//   - fxgraph_subscriber_computations_total: Counter of subscriber evaluations by kind
//   - fxgraph_subscriber_invalidations_total: Counter of subscribers marked outdated
//
// Example:
//
//	rt := fx.New(fx.WithHooks(metrics.New(metrics.WithNamespace("myapp"))))
//	http.Handle("/metrics", promhttp.Handler())
package metrics

import (
	"time"

	"github.com/delaneyj/fxgraph/fx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the Prometheus hooks.
type Config struct {
	// Namespace is the metrics namespace (default: "fxgraph").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus hooks.
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
		Namespace: "fxgraph",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Hooks implements fx.Hooks on top of Prometheus collectors. Registering two
// Hooks with the same namespace on one registry panics, like any duplicate
// Prometheus registration.
type Hooks struct {
	dispatches       *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	fxExecutions     *prometheus.CounterVec
	computations     *prometheus.CounterVec
	invalidations    prometheus.Counter
}

var _ fx.Hooks = (*Hooks)(nil)

// New creates the collectors and registers them.
func New(opts ...Option) *Hooks {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Hooks{
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total number of dispatched commands",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		dispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Dispatch duration in seconds, effects included",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		fxExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fx_executions_total",
			Help:        "Total number of executed fx",
			ConstLabels: config.ConstLabels,
		}, []string{"fx", "status"}),

		computations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscriber_computations_total",
			Help:        "Total number of subscriber evaluations",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscriber_invalidations_total",
			Help:        "Total number of subscribers marked outdated",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (h *Hooks) DispatchStarted(fx.Identifier) func(error) {
	start := time.Now()
	return func(err error) {
		h.dispatchDuration.Observe(time.Since(start).Seconds())
		h.dispatches.WithLabelValues(status(err)).Inc()
	}
}

func (h *Hooks) FxStarted(id fx.Identifier) func(error) {
	return func(err error) {
		h.fxExecutions.WithLabelValues(fxLabel(id), status(err)).Inc()
	}
}

func (h *Hooks) SubscriberComputed(_ fx.Identifier, root bool) {
	kind := "derived"
	if root {
		kind = "root"
	}
	h.computations.WithLabelValues(kind).Inc()
}

func (h *Hooks) SubscriberInvalidated(fx.Identifier) {
	h.invalidations.Inc()
}

// status keeps label cardinality bounded by the error codes.
func status(err error) string {
	if err == nil {
		return "success"
	}
	if code := fx.Code(err); code != "" {
		return string(code)
	}
	return "error"
}

// Only core identifiers have stable names; every other fx shares one label.
func fxLabel(id fx.Identifier) string {
	if id.IsCore() {
		return id.Label()
	}
	return "registered"
}
