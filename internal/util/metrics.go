package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmacy_orders_placed_total",
		Help: "Total number of orders submitted",
	}, []string{"type"})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmacy_order_transitions_total",
		Help: "Total number of order status transitions",
	}, []string{"to"})

	OrdersRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pharmacy_orders_removed_total",
		Help: "Total number of orders deleted by the operator",
	})

	ValidationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmacy_validation_failures_total",
		Help: "Total number of rejected submissions by offending field",
	}, []string{"field"})

	SubmissionsRejectedBusy = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pharmacy_submissions_busy_total",
		Help: "Total number of submissions rejected while another was in flight",
	})

	StorageReadRecoveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pharmacy_storage_read_recoveries_total",
		Help: "Total number of unreadable order lists treated as empty",
	})

	StorageWriteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pharmacy_storage_write_latency_seconds",
		Help:    "Latency of full order list rewrites",
		Buckets: prometheus.DefBuckets,
	})

	AICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmacy_ai_calls_total",
		Help: "Total number of AI collaborator calls by operation and outcome",
	}, []string{"operation", "outcome"})

	AICallLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pharmacy_ai_call_latency_seconds",
		Help:    "Latency of AI collaborator calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	OrderEventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmacy_order_events_consumed_total",
		Help: "Total number of order events handled by the notifier",
	}, []string{"type"})

	OrderEventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pharmacy_order_events_failed_total",
		Help: "Total number of order events dropped after the handler kept failing",
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
