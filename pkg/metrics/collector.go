// Package metrics exposes the portal's Prometheus metrics.
//
// Metrics:
//   - pbm_portal_gateway_requests_total: query gateway requests by table and terminal outcome
//   - pbm_portal_gateway_stage_duration_seconds: time spent per gateway stage
//   - pbm_portal_llm_retries_total: rate-limit retries by client and operation
//   - pbm_portal_http_requests_total / pbm_portal_http_request_duration_seconds: HTTP traffic
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pbm_portal"

// Collector owns a registry and every metric registered on it.
type Collector struct {
	registry *prometheus.Registry

	gatewayRequests *prometheus.CounterVec
	gatewayStages   *prometheus.HistogramVec
	llmRetries      *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewCollector registers the portal metrics on registry. A nil registry gets a
// fresh one with the Go and process collectors attached.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	c := &Collector{
		registry: registry,
		gatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_requests_total",
				Help:      "Query gateway requests by table and terminal outcome",
			},
			[]string{"table", "outcome"},
		),
		gatewayStages: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_stage_duration_seconds",
				Help:      "Time spent in each query gateway stage",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"stage"},
		),
		llmRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_retries_total",
				Help:      "LLM calls retried after a rate-limit error",
			},
			[]string{"client", "op"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		c.gatewayRequests,
		c.gatewayStages,
		c.llmRetries,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

// RecordGatewayOutcome counts one finished gateway request.
func (c *Collector) RecordGatewayOutcome(table, outcome string) {
	c.gatewayRequests.WithLabelValues(table, outcome).Inc()
}

// ObserveGatewayStage records how long a gateway stage took.
func (c *Collector) ObserveGatewayStage(stage string, d time.Duration) {
	c.gatewayStages.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordLLMRetry counts one scheduled retry.
func (c *Collector) RecordLLMRetry(client, op string) {
	c.llmRetries.WithLabelValues(client, op).Inc()
}

// RecordHTTPRequest counts one served request.
func (c *Collector) RecordHTTPRequest(method, route, status string, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, status).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
