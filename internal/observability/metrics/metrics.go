package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics instruments inbound HTTP traffic.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loyalty_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	prometheus.MustRegister(m.requests, m.duration)
	return m
}

func (m *HTTPMetrics) Observe(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// EngineMetrics counts loyalty-engine outcomes.
type EngineMetrics struct {
	pointsAwarded  *prometheus.CounterVec
	pointsRedeemed prometheus.Counter
	tierChanges    *prometheus.CounterVec
	duplicateRefs  prometheus.Counter
}

func NewEngineMetrics() *EngineMetrics {
	m := &EngineMetrics{
		pointsAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_points_awarded_total",
			Help: "Points credited, by transaction type.",
		}, []string{"type"}),
		pointsRedeemed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loyalty_points_redeemed_total",
			Help: "Points debited through redemptions.",
		}),
		tierChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_tier_changes_total",
			Help: "Tier transitions, by direction.",
		}, []string{"direction"}),
		duplicateRefs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loyalty_duplicate_awards_total",
			Help: "Awards absorbed by reference idempotency.",
		}),
	}
	prometheus.MustRegister(m.pointsAwarded, m.pointsRedeemed, m.tierChanges, m.duplicateRefs)
	return m
}

func (m *EngineMetrics) RecordAward(txType string, amount int64) {
	if m == nil {
		return
	}
	m.pointsAwarded.WithLabelValues(txType).Add(float64(amount))
}

func (m *EngineMetrics) RecordRedeem(amount int64) {
	if m == nil {
		return
	}
	m.pointsRedeemed.Add(float64(amount))
}

func (m *EngineMetrics) RecordTierChange(direction string) {
	if m == nil {
		return
	}
	m.tierChanges.WithLabelValues(direction).Inc()
}

func (m *EngineMetrics) RecordDuplicateAward() {
	if m == nil {
		return
	}
	m.duplicateRefs.Inc()
}
