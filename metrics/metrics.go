// Package metrics holds the Prometheus collectors of the commission service.
//
// Every method is safe on a nil *Metrics, so components built without
// observability (tests, one-off tools) skip recording instead of branching.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for rule resolution, recalculation and alerts.
type Metrics struct {
	// Resolution outcomes by outcome and reason
	Resolutions *prometheus.CounterVec

	// Per-sale recalculation outcomes: updated, skipped, error
	RecalcSales *prometheus.CounterVec

	// Full recalculation run latency
	RecalcDuration prometheus.Histogram

	// Alerts queued by notification type
	AlertsSent *prometheus.CounterVec

	// Alerts suppressed by the daily dedup log
	AlertsDeduped *prometheus.CounterVec
}

// New registers the collectors with the default Prometheus registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commission_resolutions_total",
			Help: "Total rule resolutions by outcome and reason",
		}, []string{"outcome", "reason"}), // outcome: "matched", "manual", "no_rule"

		RecalcSales: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commission_recalc_sales_total",
			Help: "Sales processed by the recalculation job by result",
		}, []string{"result"}),

		RecalcDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "commission_recalc_duration_seconds",
			Help:    "Duration of a full recalculation run",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		AlertsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commission_alerts_sent_total",
			Help: "Alerts queued for delivery by notification type",
		}, []string{"type"}),

		AlertsDeduped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commission_alerts_deduplicated_total",
			Help: "Alerts skipped because they were already sent today",
		}, []string{"type"}),
	}
}

// IncrementResolution records a resolver outcome.
func (m *Metrics) IncrementResolution(outcome, reason string) {
	if m != nil {
		m.Resolutions.WithLabelValues(outcome, reason).Inc()
	}
}

// IncrementRecalcSale records one sale's recalculation result.
func (m *Metrics) IncrementRecalcSale(result string) {
	if m != nil {
		m.RecalcSales.WithLabelValues(result).Inc()
	}
}

// ObserveRecalcDuration records how long a recalculation run took.
func (m *Metrics) ObserveRecalcDuration(d time.Duration) {
	if m != nil {
		m.RecalcDuration.Observe(d.Seconds())
	}
}

// IncrementAlertSent records a queued alert.
func (m *Metrics) IncrementAlertSent(notificationType string) {
	if m != nil {
		m.AlertsSent.WithLabelValues(notificationType).Inc()
	}
}

// IncrementAlertDeduped records an alert suppressed by the dedup log.
func (m *Metrics) IncrementAlertDeduped(notificationType string) {
	if m != nil {
		m.AlertsDeduped.WithLabelValues(notificationType).Inc()
	}
}
