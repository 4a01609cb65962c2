package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeNoop    = "noop"
)

// Collector holds the Prometheus metrics for the application. Each collector
// owns its registry so tests can build one per case. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	RemoteCalls    *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec
	Reconciles     *prometheus.CounterVec
	Retirements    *prometheus.CounterVec
	BatchEntries   prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		RemoteCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Total number of CRM API calls",
			},
			[]string{"operation", "outcome"},
		),
		RemoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_call_duration_seconds",
				Help:      "CRM API call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Reconciles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciles_total",
				Help:      "Association reconcile and disassociate calls by outcome",
			},
			[]string{"operation", "outcome"},
		),
		Retirements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retired_associations_total",
				Help:      "Existing associations deleted before creating a new one",
			},
			[]string{"outcome"},
		),
		BatchEntries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_association_entries_total",
				Help:      "Entries sent in bulk association creates",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		c.RemoteCalls,
		c.RemoteDuration,
		c.Reconciles,
		c.Retirements,
		c.BatchEntries,
		c.HTTPRequests,
		c.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveRemote(operation string, start time.Time, err error) {
	if c == nil {
		return
	}
	c.RemoteCalls.WithLabelValues(operation, outcome(err)).Inc()
	c.RemoteDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (c *Collector) ObserveReconcile(operation, outcome string) {
	if c == nil {
		return
	}
	c.Reconciles.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) ObserveRetirement(err error) {
	if c == nil {
		return
	}
	c.Retirements.WithLabelValues(outcome(err)).Inc()
}

func (c *Collector) ObserveBatch(entries int) {
	if c == nil {
		return
	}
	c.BatchEntries.Add(float64(entries))
}

func (c *Collector) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
