// Package metrics exposes Prometheus collectors for the atlas service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
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

	scrapePagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_scrape_pages_total",
			Help: "Pages fetched by the scraper, labeled by site and status.",
		},
		[]string{"site", "status"},
	)

	scrapeBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_scrape_bytes_total",
			Help: "Bytes fetched by the scraper, labeled by site.",
		},
		[]string{"site"},
	)

	robotsTLSTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "atlas_robots_tls_handshake_timeout_total",
			Help: "TLS handshake timeouts encountered while probing robots.txt.",
		},
	)

	rateLimitDelaySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlas_rate_limit_delay_seconds",
			Help:    "Time spent waiting on the per-host rate limiter.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"domain"},
	)

	scrapeJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_scrape_jobs_total",
			Help: "Scrape jobs processed, labeled by status.",
		},
		[]string{"status"},
	)

	activeWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "atlas_active_workers",
			Help: "Number of workers currently running a scrape job.",
		},
	)

	cacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_cache_requests_total",
			Help: "Cache lookups, labeled by result.",
		},
		[]string{"result"},
	)

	outboundRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_outbound_requests_total",
			Help: "Calls to third-party APIs, labeled by client and outcome.",
		},
		[]string{"client", "outcome"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atlas_circuit_breaker_state",
			Help: "Circuit breaker state per client (0 closed, 1 half-open, 2 open).",
		},
		[]string{"client"},
	)

	cronRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_cron_runs_total",
			Help: "Scheduled task runs, labeled by task and status.",
		},
		[]string{"task", "status"},
	)

	cronAffectedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_cron_affected_rows_total",
			Help: "Rows touched by scheduled tasks.",
		},
		[]string{"task"},
	)
)

// Handler returns the standard Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		ObserveHTTPRequest(r.Method, route, rec.statusCode, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

// Flush lets server-sent event handlers stream through the recorder.
func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// SanitizeSite extracts a lowercase hostname from a URL, or "unknown".
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObserveHTTPRequest records metrics for an HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveFetch records a scraper page fetch.
func ObserveFetch(site, status string, bytesFetched int) {
	host := SanitizeSite(site)
	scrapePagesTotal.WithLabelValues(host, status).Inc()
	if bytesFetched > 0 {
		scrapeBytesTotal.WithLabelValues(host).Add(float64(bytesFetched))
	}
}

// ObserveProbeTLSHandshakeTimeout records a TLS handshake timeout during
// robots.txt probing.
func ObserveProbeTLSHandshakeTimeout() {
	robotsTLSTimeoutsTotal.Inc()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	rateLimitDelaySeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// ObserveJob records a scrape job reaching status.
func ObserveJob(status string) {
	scrapeJobsTotal.WithLabelValues(status).Inc()
}

// IncActiveWorkers increments the active worker count.
func IncActiveWorkers() {
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active worker count.
func DecActiveWorkers() {
	activeWorkers.Dec()
}

// ObserveCache records a cache lookup result: hit, miss or error.
func ObserveCache(result string) {
	cacheRequestsTotal.WithLabelValues(result).Inc()
}

// ObserveOutbound records a third-party API call outcome.
func ObserveOutbound(client, outcome string) {
	outboundRequestsTotal.WithLabelValues(client, outcome).Inc()
}

// SetBreakerState publishes the current breaker state for client.
func SetBreakerState(client string, state int) {
	breakerState.WithLabelValues(client).Set(float64(state))
}

// ObserveCron records a scheduled task run and the rows it touched.
func ObserveCron(task string, affected int64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	cronRunsTotal.WithLabelValues(task, status).Inc()
	if affected > 0 {
		cronAffectedRows.WithLabelValues(task).Add(float64(affected))
	}
}
