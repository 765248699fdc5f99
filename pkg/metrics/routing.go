package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fulfillment"

// Claim outcomes reported on claim_attempts_total.
const (
	OutcomeClaimed        = "claimed"
	OutcomeAlreadyClaimed = "already_claimed"
	OutcomeIneligible     = "ineligible"
	OutcomeUnavailable    = "unavailable"
	OutcomeError          = "error"
)

// RoutingMetrics records order routing and claim activity. A nil value is a no-op.
type RoutingMetrics struct {
	routed        *prometheus.CounterVec
	claims        *prometheus.CounterVec
	claimDuration prometheus.Histogram
	notifications *prometheus.CounterVec
}

// NewRoutingMetrics registers the routing metrics on the provided registerer.
func NewRoutingMetrics(reg prometheus.Registerer) *RoutingMetrics {
	if reg == nil {
		return &RoutingMetrics{}
	}
	routed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_routed_total",
		Help:      "Orders created, by routing path.",
	}, []string{"path"})
	claims := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "claim_attempts_total",
		Help:      "Claim attempts, by outcome.",
	}, []string{"outcome"})
	claimDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "claim_duration_seconds",
		Help:      "Duration of claim attempts in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification deliveries, by event type and result.",
	}, []string{"event", "result"})
	reg.MustRegister(routed, claims, claimDuration, notifications)
	return &RoutingMetrics{
		routed:        routed,
		claims:        claims,
		claimDuration: claimDuration,
		notifications: notifications,
	}
}

// IncRouted counts an order created on the prime or shop path.
func (m *RoutingMetrics) IncRouted(path string) {
	if m == nil || m.routed == nil {
		return
	}
	m.routed.WithLabelValues(normalizeLabel(path)).Inc()
}

// ObserveClaim records a claim attempt outcome and its duration.
func (m *RoutingMetrics) ObserveClaim(outcome string, duration time.Duration) {
	if m == nil || m.claims == nil {
		return
	}
	m.claims.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.claimDuration.Observe(duration.Seconds())
}

// IncNotification counts a notification delivery result.
func (m *RoutingMetrics) IncNotification(event string, ok bool) {
	if m == nil || m.notifications == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.notifications.WithLabelValues(normalizeLabel(event), result).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
