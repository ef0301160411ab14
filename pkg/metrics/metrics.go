package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scichart_build_info",
			Help: "Build information of the chart service",
		},
		[]string{"version", "commit", "date"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scichart_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scichart_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 0.01s to ~41s
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scichart_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scichart_pipeline_turns_total",
			Help: "Total number of pipeline turns by outcome",
		},
		[]string{"outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scichart_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		[]string{"stage"},
	)

	InterpretationCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scichart_interpretation_calls_total",
			Help: "Total number of interpretation calls by status",
		},
		[]string{"status"},
	)

	BackendQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scichart_backend_queries_total",
			Help: "Total number of aggregation backend queries",
		},
		[]string{"backend", "query", "status"},
	)

	BackendQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scichart_backend_query_duration_seconds",
			Help:    "Duration of aggregation backend queries",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"backend", "query"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scichart_cache_lookups_total",
			Help: "Total number of result cache lookups",
		},
		[]string{"query", "result"},
	)
)
