// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wardrobe_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// AI Service Metrics
	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wardrobe_ai_request_duration_seconds",
			Help:    "Duration of chat completion calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"operation", "outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wardrobe_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Quota Metrics
	QuotaRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_quota_rejections_total",
			Help: "Requests rejected because the daily quota was used up",
		},
		[]string{"action"},
	)

	QuotaDegradedChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_quota_degraded_checks_total",
			Help: "Quota checks allowed without reading the usage store",
		},
		[]string{"action"},
	)

	// Preference Learning Metrics
	RatingsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_ratings_recorded_total",
			Help: "Outfit ratings folded into preference models, by star value",
		},
		[]string{"rating"},
	)
)
