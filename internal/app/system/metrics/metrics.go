// Package metrics holds the Prometheus collectors for the authorization,
// verification and audit subsystems. Collectors register with the default
// registry once at package init and are served by Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// VerificationsTotal counts public lookups by token kind and result kind.
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memberhub_verifications_total",
			Help: "Public verification lookups by token kind and outcome",
		},
		[]string{"token_kind", "result"},
	)

	// AuthzDenialsTotal counts authorization denials by operation.
	AuthzDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memberhub_authz_denials_total",
			Help: "Authorization denials by operation",
		},
		[]string{"operation"},
	)

	// AuditWriteFailuresTotal counts audit entries that could not be stored.
	AuditWriteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memberhub_audit_write_failures_total",
			Help: "Audit events that failed to persist, by event type",
		},
		[]string{"event_type"},
	)

	// RateLimitedTotal counts requests rejected by the public rate limiter.
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memberhub_rate_limited_total",
			Help: "Requests rejected by the public rate limiter, by endpoint",
		},
		[]string{"endpoint"},
	)

	// RoleConflictsTotal counts lost compare-and-swap races on role rows.
	RoleConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "memberhub_role_conflicts_total",
			Help: "Role row compare-and-swap conflicts",
		},
	)

	// DelegatesRegisteredTotal counts delegate registrations.
	DelegatesRegisteredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "memberhub_delegates_registered_total",
			Help: "Delegate registrations accepted",
		},
	)
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
