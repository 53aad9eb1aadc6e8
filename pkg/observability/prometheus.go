package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics for the service. Each collector
// owns its registry, so several can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Completion provider metrics
	Completions        *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	BreakerState       *prometheus.GaugeVec

	// Content metrics
	Answers  *prometheus.CounterVec
	Diagrams *prometheus.CounterVec

	// Query bus metrics
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

// NewCollector creates a collector whose metrics share namespace
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Completion requests by provider and outcome",
		}, []string{"provider", "outcome"}),
		CompletionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Completion request duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"provider"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		}, []string{"name"}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers produced, by kind",
		}, []string{"kind"}),
		Diagrams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagrams_total",
			Help:      "Diagram candidates seen while rendering, by result",
		}, []string{"result"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries answered, by query and outcome",
		}, []string{"query", "outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Completions,
		c.CompletionDuration,
		c.BreakerState,
		c.Answers,
		c.Diagrams,
		c.Queries,
		c.QueryDuration,
	)
	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one finished request
func (c *Collector) ObserveHTTP(method, route, status string, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveCompletion records one completion request
func (c *Collector) ObserveCompletion(provider, outcome string, duration time.Duration) {
	c.Completions.WithLabelValues(provider, outcome).Inc()
	c.CompletionDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveAnswer counts one produced answer of kind answer or error
func (c *Collector) ObserveAnswer(kind string) {
	c.Answers.WithLabelValues(kind).Inc()
}

// ObserveDiagram counts one diagram candidate by result
func (c *Collector) ObserveDiagram(result string) {
	c.Diagrams.WithLabelValues(result).Inc()
}

// SetBreakerState records a circuit breaker state change
func (c *Collector) SetBreakerState(name string, state int) {
	c.BreakerState.WithLabelValues(name).Set(float64(state))
}

// ObserveQuery records one answered query
func (c *Collector) ObserveQuery(query, outcome string, duration time.Duration) {
	c.Queries.WithLabelValues(query, outcome).Inc()
	c.QueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}
