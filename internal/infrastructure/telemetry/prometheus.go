package telemetry

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registry scraped on /metrics
type Registry struct {
	reg *prometheus.Registry
}

// NewRegistry registers the Go runtime and process collectors
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{reg: reg}
}

// Registerer exposes the underlying registry for extra collectors
func (r *Registry) Registerer() prometheus.Registerer { return r.reg }

// Gatherer is used by tests and the handler
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// WatchDB exports connection pool statistics for db under the given name
func (r *Registry) WatchDB(db *sql.DB, name string) error {
	return r.reg.Register(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// HTTPMetrics counts requests and their latency by method, route and status
type HTTPMetrics struct {
	inFlight prometheus.Gauge
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics creates new HTTP request metrics registered on reg
func NewHTTPMetrics(reg prometheus.Registerer) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	for _, c := range []prometheus.Collector{m.inFlight, m.total, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Start marks a request in flight and returns the function that records it
func (m *HTTPMetrics) Start(method string) func(route string, status int) {
	m.inFlight.Inc()
	started := time.Now()
	return func(route string, status int) {
		m.inFlight.Dec()
		code := strconv.Itoa(status)
		m.total.WithLabelValues(method, route, code).Inc()
		m.duration.WithLabelValues(method, route, code).Observe(time.Since(started).Seconds())
	}
}
