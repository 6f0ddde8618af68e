// Package metricsvc exposes validation metrics to Prometheus.
package metricsvc

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/engine"
)

// Collector counts validations per rule set and outcome, and failures per kind.
//
// Metrics (with the default namespace and subsystem):
//   - masomo_guard_validations_total{rule_set, outcome}
//   - masomo_guard_validation_duration_seconds{rule_set}
//   - masomo_guard_failures_total{rule_set, kind}
type Collector struct {
	registry *prometheus.Registry

	validations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	failures    *prometheus.CounterVec
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector registers the validation metrics with registry (a new one when nil).
func NewCollector(conf core.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if conf.Namespace == "" {
		conf.Namespace = "masomo"
	}
	if conf.Subsystem == "" {
		conf.Subsystem = "guard"
	}

	c := &Collector{
		registry: registry,
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: conf.Namespace,
				Subsystem: conf.Subsystem,
				Name:      "validations_total",
				Help:      "Total number of validations by rule set and outcome",
			},
			[]string{"rule_set", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: conf.Namespace,
				Subsystem: conf.Subsystem,
				Name:      "validation_duration_seconds",
				Help:      "Duration of validations in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14), // 50µs to 400ms
			},
			[]string{"rule_set"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: conf.Namespace,
				Subsystem: conf.Subsystem,
				Name:      "failures_total",
				Help:      "Total number of rule failures by rule set and failure kind",
			},
			[]string{"rule_set", "kind"},
		),
	}
	registry.MustRegister(c.validations, c.duration, c.failures)
	return c
}

func (c *Collector) Observe(key engine.RuleSetKey, outcome engine.Outcome, failures []engine.Failure, elapsed time.Duration) {
	rs := key.String()
	c.validations.WithLabelValues(rs, string(outcome)).Inc()
	c.duration.WithLabelValues(rs).Observe(elapsed.Seconds())
	for _, f := range failures {
		c.failures.WithLabelValues(rs, string(f.Kind)).Inc()
	}
}

// Handler serves the registered metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
