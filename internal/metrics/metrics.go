// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store operation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	// StoreOperationsTotal counts row store calls by operation and outcome.
	StoreOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playersheet_store_operations_total",
		Help: "The total number of row store operations by operation and outcome",
	}, []string{"op", "outcome"})

	StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playersheet_store_operation_latency_seconds",
		Help:    "Latency of row store operations against the spreadsheet",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	StoreRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playersheet_store_retries_total",
		Help: "The total number of update attempts retried after an auth failure",
	})

	StoreReconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playersheet_store_reconnects_total",
		Help: "The total number of spreadsheet reconnects by result",
	}, []string{"result"})

	// StoreStaleReadsTotal counts post-write reads whose shape did not match
	// the header, answered from the in-memory record instead.
	StoreStaleReadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playersheet_store_stale_reads_total",
		Help: "The total number of post-write reads that fell back to local data",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playersheet_http_requests_total",
		Help: "The total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	HTTPRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playersheet_http_request_latency_seconds",
		Help:    "Latency of HTTP requests by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
