package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticket_validator_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
	)

	RunTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_validator_runs_total",
			Help: "Total pipeline runs by terminal status",
		},
		[]string{"status"},
	)

	RowsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_validator_rows_processed_total",
			Help: "Total input rows processed per source file",
		},
		[]string{"source"},
	)

	ValidationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_validator_validation_outcomes_total",
			Help: "Total classified tickets by validation outcome",
		},
		[]string{"validation"},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_validator_cache_hits_total",
			Help: "Total memoized result cache hits",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_validator_cache_misses_total",
			Help: "Total memoized result cache misses",
		},
	)

	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_validator_exports_total",
			Help: "Total result exports by format",
		},
		[]string{"format"},
	)
)

func Init() {
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(RunTotal)
	prometheus.MustRegister(RowsProcessed)
	prometheus.MustRegister(ValidationOutcomes)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(ExportsTotal)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
