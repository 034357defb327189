// Package metrics exposes Prometheus collectors for the verification service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests and multiple servers never collide.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry         *prometheus.Registry
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	upstreamCalls    *prometheus.CounterVec
	verdicts         *prometheus.CounterVec
	pipelineOutcomes *prometheus.CounterVec
}

// New creates a Collector with all metrics registered.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verisense_http_requests_total",
				Help: "HTTP requests served, by route and status code.",
			},
			[]string{"route", "method", "code"},
		),
		httpLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "verisense_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		upstreamCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verisense_upstream_calls_total",
				Help: "Calls to external services, by service and outcome.",
			},
			[]string{"service", "outcome"},
		),
		verdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verisense_verdicts_total",
				Help: "Verified claim records produced, by verdict.",
			},
			[]string{"verdict"},
		),
		pipelineOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verisense_pipeline_runs_total",
				Help: "Pipeline runs, by outcome (success or failure).",
			},
			[]string{"outcome"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(route, method, code string, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(route, method, code).Inc()
	c.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveUpstream records one call to an external service.
// outcome is "ok" or a short failure class such as "error" or "status".
func (c *Collector) ObserveUpstream(service, outcome string) {
	if c == nil {
		return
	}
	c.upstreamCalls.WithLabelValues(service, outcome).Inc()
}

// ObserveVerdict counts one produced record.
func (c *Collector) ObserveVerdict(verdict string) {
	if c == nil {
		return
	}
	c.verdicts.WithLabelValues(verdict).Inc()
}

// ObservePipeline counts one pipeline run.
func (c *Collector) ObservePipeline(success bool) {
	if c == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.pipelineOutcomes.WithLabelValues(outcome).Inc()
}
