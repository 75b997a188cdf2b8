package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colletr_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "colletr_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Gemini Metrics
	GeminiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colletr_gemini_requests_total",
			Help: "Total number of Gemini API requests",
		},
		[]string{"operation"}, // "identify" or "valuate"
	)

	GeminiErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colletr_gemini_errors_total",
			Help: "Total number of Gemini API errors by type",
		},
		[]string{"operation", "type"}, // type: network, api, parse, empty
	)

	GeminiAPILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "colletr_gemini_api_latency_seconds",
			Help:    "Gemini API call latency in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	ValuationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "colletr_valuation_cache_hits_total",
			Help: "Valuation responses served from the LRU cache",
		},
	)

	// Persistence Metrics
	SnapshotSavesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "colletr_snapshot_saves_total",
			Help: "Successful whole-state snapshot saves",
		},
	)

	SnapshotSaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "colletr_snapshot_save_failures_total",
			Help: "Failed snapshot saves (in-memory state kept)",
		},
	)

	// Catalog Metrics
	CatalogItemsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "colletr_catalog_items_total",
			Help: "Total number of items across all collections",
		},
	)

	CatalogValueTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "colletr_catalog_value_total",
			Help: "Total estimated value across all collections",
		},
	)

	CatalogCollections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "colletr_catalog_collections",
			Help: "Number of collections in the catalog",
		},
	)

	// Price Alert Worker Metrics
	AlertChecksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "colletr_alert_checks_total",
			Help: "Price alert checks performed",
		},
	)

	AlertsTriggeredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "colletr_alerts_triggered_total",
			Help: "Price alerts that crossed their threshold",
		},
	)
)
