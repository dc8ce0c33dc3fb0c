package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outbound backend and client-state Prometheus metrics.
var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swapcycle",
			Name:      "api_requests_total",
			Help:      "Total number of requests sent to the SwapCycle backend",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "swapcycle",
			Name:      "api_request_duration_seconds",
			Help:      "Backend request duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	SearchRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swapcycle",
			Name:      "search_refresh_total",
			Help:      "Search and marker refreshes by outcome",
		},
		[]string{"query", "outcome"}, // query: search/markers; outcome: applied/stale/error
	)

	CatalogCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swapcycle",
			Name:      "catalog_cache_total",
			Help:      "Category cache lookups by result",
		},
		[]string{"result"}, // hit/miss
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "swapcycle",
			Name:      "ws_connections",
			Help:      "Open browse websocket connections",
		},
	)
)

var apiMetricsRegistered bool

// RegisterAPIMetrics registers the outbound and client-state metrics. Must be called once from main.
func RegisterAPIMetrics() {
	if apiMetricsRegistered {
		return
	}
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(SearchRefreshTotal)
	prometheus.MustRegister(CatalogCacheTotal)
	prometheus.MustRegister(WSConnections)
	apiMetricsRegistered = true
}
