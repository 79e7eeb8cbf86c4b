// Package metrics provides Prometheus metrics for the portfolio tracker backend.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optcg_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optcg_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Sync Job Metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optcg_sync_runs_total",
			Help: "Sync job invocations by kind and final status",
		},
		[]string{"kind", "status"}, // status: "completed" or "failed"
	)

	SyncRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optcg_sync_records_total",
			Help: "Records handled by sync jobs",
		},
		[]string{"kind", "outcome"}, // "created", "updated", "skipped", "failed"
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optcg_sync_duration_seconds",
			Help:    "Wall time of a sync job invocation",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	SyncRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optcg_sync_running",
			Help: "Sync jobs currently running in this process",
		},
		[]string{"kind"},
	)

	// Upstream API Metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optcg_upstream_requests_total",
			Help: "Requests made to third-party APIs",
		},
		[]string{"source", "result"}, // source: "optcg", "pricecharting"; result: "ok", "error", "no_match"
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optcg_upstream_latency_seconds",
			Help:    "Third-party API call latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"source"},
	)

	PriceSearchCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "optcg_price_search_cache_hits_total",
			Help: "Price source product searches answered from cache",
		},
	)

	PriceSearchCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "optcg_price_search_cache_misses_total",
			Help: "Price source product searches that went upstream",
		},
	)

	ThrottleWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "optcg_throttle_wait_seconds",
			Help:    "Time spent waiting on the price source throttle",
			Buckets: []float64{0, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)

	// Price History Metrics
	PricesRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optcg_prices_recorded_total",
			Help: "Price history rows appended by sync jobs",
		},
		[]string{"source", "kind"}, // kind: "raw", "graded"
	)

	// Catalog Metrics
	CardDatabaseSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "optcg_card_database_size",
			Help: "Number of cards in the catalog",
		},
	)

	// Valuation Metrics
	SetValueUSD = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optcg_set_value_usd",
			Help: "Last computed set value in USD",
		},
		[]string{"set", "tier"}, // tier: "raw", "psa10", "sealed"
	)

	SetCardsPriced = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optcg_set_cards_priced",
			Help: "Cards in a set with at least one price observation",
		},
		[]string{"set"},
	)
)
