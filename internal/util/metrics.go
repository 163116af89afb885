package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed through checkout",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed checkout attempts",
	}, []string{"reason"})

	OrdersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_completed_total",
		Help: "Total number of orders completed by payment notification",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of cancelled orders",
	})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of the full order submission flow",
		Buckets: prometheus.DefBuckets,
	})

	PreferenceRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_preference_requests_total",
		Help: "Total number of payment preference creation attempts",
	})

	PreferenceFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_preference_failed_total",
		Help: "Total number of failed payment preference creations",
	})

	PreferenceLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_preference_latency_seconds",
		Help:    "Latency of payment preference creation",
		Buckets: prometheus.DefBuckets,
	})

	ReconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconcile_total",
		Help: "Total number of payment-return reconciliations by outcome",
	}, []string{"target"})

	CatalogEventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_events_applied_total",
		Help: "Total number of change-feed events applied to the catalog",
	}, []string{"table", "op"})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart ledger mutations",
	}, []string{"op"})

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
