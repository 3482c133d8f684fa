// Package metrics exposes Prometheus collectors for the foghorn service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapeSitesTotal           *prometheus.CounterVec
	scrapePagesCreatedTotal    prometheus.Counter
	auditPagesTotal            *prometheus.CounterVec
	auditDurationSeconds       prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scrapeSitesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foghorn_scrape_sites_total",
				Help: "Total number of site scrape attempts, labeled by status.",
			},
			[]string{"status"},
		)

		scrapePagesCreatedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "foghorn_scrape_pages_created_total",
				Help: "Total number of pages created by the reconciler.",
			},
		)

		auditPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foghorn_audit_pages_total",
				Help: "Total number of page audit attempts, labeled by status.",
			},
			[]string{"status"},
		)

		auditDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "foghorn_audit_duration_seconds",
				Help:    "Histogram of external audit API call durations.",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveScrape increments the scrape counter for the given status.
func ObserveScrape(status string) {
	scrapeSitesTotal.WithLabelValues(status).Inc()
}

// AddPagesCreated records pages created during a reconcile pass.
func AddPagesCreated(n int) {
	if n > 0 {
		scrapePagesCreatedTotal.Add(float64(n))
	}
}

// ObserveAudit records an audit attempt and its external-call duration.
func ObserveAudit(status string, duration time.Duration) {
	auditPagesTotal.WithLabelValues(status).Inc()
	auditDurationSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
