package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PurchasesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "icash_purchases_created_total",
			Help: "Number of purchases recorded successfully",
		},
	)

	ValidationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "icash_purchase_validation_failures_total",
			Help: "Number of purchase requests rejected by validation",
		},
	)

	StorageFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "icash_storage_failures_total",
			Help: "Number of operations that failed in the catalog store",
		},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "icash_request_duration_seconds",
			Help: "Time taken to handle HTTP requests",
		},
		[]string{"route"},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "icash_snapshot_cache_hits_total",
			Help: "Number of catalog/analytics responses served from cache",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "icash_snapshot_cache_misses_total",
			Help: "Number of catalog/analytics responses computed fresh",
		},
	)
)

func Register() {
	prometheus.MustRegister(
		PurchasesCreated,
		ValidationFailures,
		StorageFailures,
		RequestDuration,
		CacheHits,
		CacheMisses,
	)
}
