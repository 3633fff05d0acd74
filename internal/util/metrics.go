package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SnapshotsImportedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snapshots_imported_total",
		Help: "Total number of snapshot sessions committed",
	})

	SnapshotsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshots_failed_total",
		Help: "Total number of snapshot sessions marked failed",
	}, []string{"reason"})

	RestaurantsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurants_created_total",
		Help: "Total number of restaurants created on first sight",
	})

	CategoriesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "categories_created_total",
		Help: "Total number of categories created",
	})

	ProductsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_created_total",
		Help: "Total number of products created",
	})

	ProductsMatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "products_matched_total",
		Help: "Total number of products resolved to an existing row",
	}, []string{"by"})

	OffersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offers_created_total",
		Help: "Total number of offers created",
	})

	OffersReactivatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offers_reactivated_total",
		Help: "Total number of offers reactivated after reappearing",
	})

	OffersDeactivatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offers_deactivated_total",
		Help: "Total number of offers deactivated after disappearing",
	})

	PricePointsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "price_points_written_total",
		Help: "Total number of price observations appended",
	})

	PricePointsDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "price_points_duplicate_total",
		Help: "Total number of duplicate price observations skipped as no-ops",
	})

	ImportRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "import_retries_total",
		Help: "Total number of session retries after transient store failures",
	})

	ImportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "import_duration_seconds",
		Help:    "Duration of one restaurant snapshot import",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
