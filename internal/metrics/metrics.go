// Package metrics exposes Prometheus collectors for the GOLEA service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LoginSuccessesTotal *prometheus.CounterVec
	LoginFailuresTotal  *prometheus.CounterVec
	SignupsTotal        prometheus.Counter

	RateLimitRejectionsTotal prometheus.Counter

	GridBuildsTotal   prometheus.Counter
	GridBuildDuration prometheus.Histogram

	ServerStartTime prometheus.Gauge
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "golea_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "golea_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		LoginSuccessesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "golea_login_successes_total",
			Help: "Total number of successful logins by variant.",
		}, []string{"variant"}),

		LoginFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "golea_login_failures_total",
			Help: "Total number of failed logins by variant and error kind.",
		}, []string{"variant", "kind"}),

		SignupsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "golea_signups_total",
			Help: "Total number of accounts created.",
		}),

		RateLimitRejectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "golea_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter.",
		}),

		GridBuildsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "golea_calendar_grid_builds_total",
			Help: "Total number of month grids built.",
		}),

		GridBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "golea_calendar_grid_build_duration_seconds",
			Help:    "Month grid build duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.000001, 10, 6),
		}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "golea_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginSuccessesTotal,
		m.LoginFailuresTotal,
		m.SignupsTotal,
		m.RateLimitRejectionsTotal,
		m.GridBuildsTotal,
		m.GridBuildDuration,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, pathPattern string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}

// IncLoginSuccess increments the success counter for a login variant.
func (m *Metrics) IncLoginSuccess(variant string) {
	m.LoginSuccessesTotal.WithLabelValues(variant).Inc()
}

// IncLoginFailure increments the failure counter for a login variant.
func (m *Metrics) IncLoginFailure(variant, kind string) {
	m.LoginFailuresTotal.WithLabelValues(variant, kind).Inc()
}

// ObserveGridBuild records one calendar grid build.
func (m *Metrics) ObserveGridBuild(duration time.Duration) {
	m.GridBuildsTotal.Inc()
	m.GridBuildDuration.Observe(duration.Seconds())
}
