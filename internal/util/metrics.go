package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_completed_total",
		Help: "Total number of completed sales",
	}, []string{"method"})

	SalesRevenueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_revenue_kes_total",
		Help: "Recorded revenue of completed sales in KES",
	})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Total number of rejected checkouts",
	}, []string{"reason"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of checkout including any configured delay",
		Buckets: prometheus.DefBuckets,
	})

	StockOversellClampedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_oversell_clamped_total",
		Help: "Total number of stock decrements clamped at zero",
	})

	AnomaliesFlagged = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anomalies_flagged",
		Help: "Flagged transactions in the ledger as of the last audit",
	}, []string{"kind"})

	CatalogMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_mutations_total",
		Help: "Total number of catalog mutations",
	}, []string{"op"})

	StatePersistFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "state_persist_failures_total",
		Help: "Total number of failed state saves",
	})

	StatePersistLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "state_persist_latency_seconds",
		Help:    "Latency of state saves",
		Buckets: prometheus.DefBuckets,
	})

	AssistantRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_requests_total",
		Help: "Total number of assistant requests",
	}, []string{"kind", "outcome"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Total number of published domain events",
	}, []string{"type", "outcome"})

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
