package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service exports. All collectors
// register against the passed-in registry so tests can use a private
// one without hitting the global default.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RegistrationsTotal      *prometheus.CounterVec
	LoginsTotal             *prometheus.CounterVec
	TokenVerificationsTotal *prometheus.CounterVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gophercalc_http_requests_total",
			Help: "HTTP requests processed, labelled by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gophercalc_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, labelled by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RegistrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gophercalc_registrations_total",
			Help: "Registration attempts by outcome.",
		}, []string{"status"}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gophercalc_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"status"}),
		TokenVerificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gophercalc_token_verifications_total",
			Help: "Bearer token verifications by outcome.",
		}, []string{"status"}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gophercalc_calculation_cache_hits_total",
			Help: "Calculation history reads served from Redis.",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gophercalc_calculation_cache_misses_total",
			Help: "Calculation history reads that fell through to MySQL.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RegistrationsTotal,
		m.LoginsTotal,
		m.TokenVerificationsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)
	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
