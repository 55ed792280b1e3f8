package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finalyze_analyses_total",
			Help: "Analyses by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	TokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finalyze_llm_tokens_total",
			Help: "Model tokens consumed by provider and direction",
		},
		[]string{"provider", "type"},
	)

	StoredReports = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "finalyze_stored_reports",
			Help: "Reports currently persisted in the history store",
		},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finalyze_cache_hits_total",
			Help: "Cache hits by cache kind",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finalyze_cache_misses_total",
			Help: "Cache misses by cache kind",
		},
		[]string{"cache"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finalyze_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)

// RecordTokens adds one invocation's usage to the per-provider counters.
func RecordTokens(provider string, inputTokens, outputTokens int) {
	TokensUsed.WithLabelValues(provider, "input").Add(float64(inputTokens))
	TokensUsed.WithLabelValues(provider, "output").Add(float64(outputTokens))
}

// Handler exposes the prometheus registry as a fiber handler.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
