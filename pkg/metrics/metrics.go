package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokenVerifications records bearer token verification outcomes by result
	// (ok or the failure kind, e.g. token_expired).
	TokenVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeeshop_token_verifications_total",
			Help: "Total number of bearer token verifications",
		},
		[]string{"result"},
	)

	// PermissionChecks counts permission decisions (allowed|denied).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeeshop_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"permission", "result"},
	)

	// KeySetFetches counts signing key set downloads (success|failure).
	KeySetFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeeshop_jwks_fetches_total",
			Help: "Total number of signing key set fetches",
		},
		[]string{"result"},
	)

	// CachedSigningKeys reports how many signing keys are currently cached.
	CachedSigningKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coffeeshop_jwks_cached_keys",
			Help: "Number of signing keys held in memory",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coffeeshop_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
