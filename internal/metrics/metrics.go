// Package metrics exposes Prometheus collectors for the harvester.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Article outcomes.
const (
	OutcomeInserted = "inserted"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

var (
	articlesTotal              *prometheus.CounterVec
	pagesTotal                 *prometheus.CounterVec
	runsTotal                  *prometheus.CounterVec
	runDurationSeconds         prometheus.Histogram
	pageDelaySeconds           prometheus.Histogram
	rateLimitDelaysSeconds     *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		articlesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_articles_total",
				Help: "Listing items processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		pagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_pages_total",
				Help: "Listing pages fetched, labeled by status class.",
			},
			[]string{"status"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_runs_total",
				Help: "Crawl runs, labeled by final status.",
			},
			[]string{"status"},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "harvester_run_duration_seconds",
				Help:    "Wall time of complete crawl runs.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)

		pageDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "harvester_page_delay_seconds",
				Help:    "Time spent sleeping between listing pages.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5},
			},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvester_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
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

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
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

// StatusClass buckets an HTTP status code as "2xx", "4xx", and so on. Zero means the
// request never produced a response.
func StatusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveArticle counts one listing item outcome.
func ObserveArticle(outcome string) {
	Init()
	articlesTotal.WithLabelValues(outcome).Inc()
}

// ObservePage counts one listing page fetch.
func ObservePage(status string) {
	Init()
	pagesTotal.WithLabelValues(status).Inc()
}

// ObserveRun records a finished run.
func ObserveRun(status string, duration time.Duration) {
	Init()
	runsTotal.WithLabelValues(status).Inc()
	runDurationSeconds.Observe(duration.Seconds())
}

// ObservePageDelay records time slept between pages.
func ObservePageDelay(duration time.Duration) {
	Init()
	pageDelaySeconds.Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
