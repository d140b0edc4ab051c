// Package metrics defines the Prometheus collectors shared by the fetch tiers,
// the LLM client, the sitemap pool and the HTTP server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeFallback = "fallback"
)

var (
	// FetchTotal counts page fetches per scraping tier.
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seo",
		Name:      "fetch_total",
		Help:      "Page fetches by tier and outcome.",
	}, []string{"tier", "outcome"})

	// FetchDuration observes fetch latency per tier.
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "seo",
		Name:      "fetch_duration_seconds",
		Help:      "Page fetch latency by tier.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"tier"})

	// LLMRequests counts LLM calls per model tier.
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seo",
		Name:      "llm_requests_total",
		Help:      "LLM generation calls by model tier and outcome.",
	}, []string{"tier", "outcome"})

	// LLMRetries counts retried LLM attempts.
	LLMRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seo",
		Name:      "llm_retries_total",
		Help:      "LLM attempts that were retried after a failure.",
	})

	// SearchTotal counts search tier attempts.
	SearchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seo",
		Name:      "search_total",
		Help:      "Search engine lookups by tier and outcome.",
	}, []string{"tier", "outcome"})

	// SitemapPages counts pages processed during sitemap ingestion.
	SitemapPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seo",
		Name:      "sitemap_pages_total",
		Help:      "Sitemap pages fetched by outcome.",
	}, []string{"outcome"})

	// HTTPRequests counts API requests.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seo",
		Name:      "http_requests_total",
		Help:      "API requests by method, route and status code.",
	}, []string{"method", "path", "status"})

	// HTTPDuration observes API latency.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "seo",
		Name:      "http_request_duration_seconds",
		Help:      "API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// ObserveFetch records one fetch attempt.
func ObserveFetch(tier, outcome string, started time.Time) {
	FetchTotal.WithLabelValues(tier, outcome).Inc()
	FetchDuration.WithLabelValues(tier).Observe(time.Since(started).Seconds())
}

// ObserveHTTP records one API request.
func ObserveHTTP(method, path string, status int, started time.Time) {
	HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, path).Observe(time.Since(started).Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
