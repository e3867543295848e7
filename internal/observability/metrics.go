package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Summary cache metrics
	SummaryCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summary_cache_hits_total",
			Help: "Total number of summary cache hits",
		},
	)

	SummaryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summary_cache_misses_total",
			Help: "Total number of summary cache misses",
		},
	)

	SummaryCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "summary_cache_entries",
			Help: "Current number of entries in the summary cache",
		},
	)

	SummaryCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summary_cache_evictions_total",
			Help: "Total number of summary cache entries removed by the TTL sweep",
		},
	)

	// Upstream collaborator metrics
	SummarizerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summarizer_request_duration_seconds",
			Help:    "Generative model request latency in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	SummarizerFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summarizer_failures_total",
			Help: "Total number of failed fetch-and-summarize attempts",
		},
	)

	AnnouncementFetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "announcement_fetch_failures_total",
			Help: "Total number of failed announcements page fetches",
		},
	)

	// Auth metrics
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"},
	)

	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Total number of requests rejected by the login rate limiter",
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Current number of live sessions",
		},
	)
)
