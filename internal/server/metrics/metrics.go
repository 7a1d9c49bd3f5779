// Package metrics exposes the server's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Auth metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "niceweather_auth_attempts_total",
			Help: "Authentication attempts by method and result",
		},
		[]string{"method", "result"},
	)

	// Push metrics
	PushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "niceweather_pushes_total",
			Help: "Push deliveries by device type and outcome",
		},
		[]string{"device_type", "outcome"},
	)

	InvalidatedTokens = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "niceweather_push_tokens_invalidated_total",
			Help: "Push tokens deleted after a provider rejected them",
		},
	)

	// Weather job metrics
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "niceweather_job_runs_total",
			Help: "Weather job runs by result",
		},
		[]string{"result"},
	)

	JobUserOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "niceweather_job_user_outcomes_total",
			Help: "Per-user weather job outcomes",
		},
		[]string{"outcome"},
	)

	// Forecast cache metrics
	ForecastCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "niceweather_forecast_cache_total",
			Help: "Forecast cache lookups by result",
		},
		[]string{"result"},
	)

	// RPC metrics
	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "niceweather_grpc_requests_total",
			Help: "gRPC requests by method and status code",
		},
		[]string{"method", "code"},
	)
)

// Label values shared by callers.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"

	OutcomeSent          = "sent"
	OutcomeInvalidTarget = "invalid_target"
	OutcomeFailed        = "failed"
	OutcomeNoProvider    = "no_provider"

	OutcomeNotified    = "notified"
	OutcomeSuppressed  = "suppressed"
	OutcomeNotNice     = "not_nice"
	OutcomeUndelivered = "undelivered"
	OutcomeError       = "error"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
