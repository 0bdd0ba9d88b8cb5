// Package metrics exposes Prometheus instrumentation for the resolution
// engine. Metrics are opt-in: nothing is registered until Init is called,
// and every record helper is a no-op before that.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	credentialCacheTotal *prometheus.CounterVec
	authnAttemptsTotal   *prometheus.CounterVec
	retryClimbsTotal     *prometheus.CounterVec
	signingKeysTotal     *prometheus.CounterVec

	metricsOnce sync.Once
	registered  bool
)

// Init registers all metrics. Call once at startup when metrics are
// enabled; safe to call repeatedly.
func Init() {
	metricsOnce.Do(func() {
		credentialCacheTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secretree_credential_cache_total",
				Help: "Credential cache lookups by outcome",
			},
			[]string{"outcome"}, // hit, miss, recompute
		)

		authnAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secretree_authn_attempts_total",
				Help: "Vault authentication attempts by strategy and outcome",
			},
			[]string{"strategy", "outcome"}, // success, denied, error
		)

		retryClimbsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secretree_retry_climbs_total",
				Help: "Retry-resolver climbs by policy",
			},
			[]string{"policy"}, // parent, root
		)

		signingKeysTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secretree_signing_keys_total",
				Help: "Signing key lifecycle events",
			},
			[]string{"event"}, // minted, evicted
		)

		registered = true
	})
}

// RecordCacheLookup records a credential cache lookup outcome.
func RecordCacheLookup(outcome string) {
	if !registered {
		return
	}
	credentialCacheTotal.WithLabelValues(outcome).Inc()
}

// RecordAuthnAttempt records one authentication attempt.
func RecordAuthnAttempt(strategy, outcome string) {
	if !registered {
		return
	}
	authnAttemptsTotal.WithLabelValues(strategy, outcome).Inc()
}

// RecordRetryClimb records one climb of the retry resolver.
func RecordRetryClimb(policy string) {
	if !registered {
		return
	}
	retryClimbsTotal.WithLabelValues(policy).Inc()
}

// RecordSigningKeyEvent records a signing key mint or eviction.
func RecordSigningKeyEvent(event string) {
	if !registered {
		return
	}
	signingKeysTotal.WithLabelValues(event).Inc()
}
