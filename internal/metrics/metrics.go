// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurance_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insurance_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CustomersOnboarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurance_customers_onboarded_total",
			Help: "Customers created or updated through the onboarding endpoints.",
		},
		[]string{"mode"},
	)

	ClaimTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurance_claim_transitions_total",
			Help: "Claim status changes by source and target status.",
		},
		[]string{"from", "to"},
	)

	UploadsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurance_uploads_rejected_total",
			Help: "Uploaded files refused by a staging policy.",
		},
		[]string{"scope", "reason"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurance_cache_hits_total",
			Help: "In-memory cache hits by cache name.",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurance_cache_misses_total",
			Help: "In-memory cache misses by cache name.",
		},
		[]string{"cache"},
	)

	WebsocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "insurance_websocket_connections",
		Help: "Currently connected websocket clients.",
	})
)
