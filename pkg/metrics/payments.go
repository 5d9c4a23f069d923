package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records reconciliation and refund activity.
type PaymentMetrics struct {
	duration   *prometheus.HistogramVec
	reconciled *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	failures   *prometheus.CounterVec
	refunds    *prometheus.CounterVec
	webhooks   *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_reconciliation_duration_seconds",
		Help:    "Duration of payment reconciliation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	reconciled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Payments reconciled into purchase records.",
	}, []string{"method"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_duplicate_confirmations_total",
		Help: "Confirmations skipped because the transaction was already settled.",
	}, []string{"method"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliation_failures_total",
		Help: "Reconciliation attempts that rolled back.",
	}, []string{"method"})
	refunds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_refunds_total",
		Help: "Purchases refunded.",
	}, []string{"method"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events_total",
		Help: "Stripe webhook deliveries by disposition.",
	}, []string{"disposition"})
	reg.MustRegister(duration, reconciled, duplicates, failures, refunds, webhooks)
	return &PaymentMetrics{
		duration:   duration,
		reconciled: reconciled,
		duplicates: duplicates,
		failures:   failures,
		refunds:    refunds,
		webhooks:   webhooks,
	}
}

// ObserveReconciliation records how long a reconciliation run took.
func (m *PaymentMetrics) ObserveReconciliation(method string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

// IncReconciled increments the settled-payment counter.
func (m *PaymentMetrics) IncReconciled(method string) {
	if m == nil || m.reconciled == nil {
		return
	}
	m.reconciled.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncDuplicate increments the already-settled counter.
func (m *PaymentMetrics) IncDuplicate(method string) {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncFailure increments the rolled-back reconciliation counter.
func (m *PaymentMetrics) IncFailure(method string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncRefund increments the refund counter.
func (m *PaymentMetrics) IncRefund(method string) {
	if m == nil || m.refunds == nil {
		return
	}
	m.refunds.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncWebhook increments the webhook counter for a disposition
// (handled, duplicate, ignored, rejected).
func (m *PaymentMetrics) IncWebhook(disposition string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(disposition)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
