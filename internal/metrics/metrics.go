// Package metrics exposes Prometheus collectors for the HTTP layer and the
// analytics store queries.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by route pattern and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calls_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"path", "status"},
	)

	// HTTPRequestDuration tracks request latency by route pattern
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calls_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// StoreQueriesTotal counts analytics store queries by backend and result
	StoreQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calls_store_queries_total",
			Help: "Total number of analytics store queries",
		},
		[]string{"store", "result"},
	)

	// StoreQueryDuration tracks store round trips, connection included
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calls_store_query_duration_seconds",
			Help:    "Duration of analytics store queries in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"store"},
	)

	// RowsDroppedTotal counts result rows discarded for holding null values
	RowsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calls_rows_dropped_total",
			Help: "Total number of result rows dropped because a column was null",
		},
	)
)

// RecordHTTPRequest records one completed HTTP request
func RecordHTTPRequest(path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordStoreQuery records one store query outcome
func RecordStoreQuery(store string, err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	StoreQueriesTotal.WithLabelValues(store, result).Inc()
	StoreQueryDuration.WithLabelValues(store).Observe(duration.Seconds())
}

// RecordRowsDropped adds n to the dropped row counter
func RecordRowsDropped(n int) {
	if n > 0 {
		RowsDroppedTotal.Add(float64(n))
	}
}
