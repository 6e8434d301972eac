package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records counters for the checkout pipeline.
type CheckoutMetrics struct {
	chargeDuration     *prometheus.HistogramVec
	chargeOutcome      *prometheus.CounterVec
	ordersCreated      prometheus.Counter
	reconciliationGaps prometheus.Counter
	shippingFallbacks  prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	chargeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_charge_duration_seconds",
		Help:    "Duration of payment charge attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	chargeOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_charge_total",
		Help: "Payment charge attempts by outcome.",
	}, []string{"outcome"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Orders persisted after a successful charge.",
	})
	reconciliationGaps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_reconciliation_gaps_total",
		Help: "Charges captured whose order persistence failed.",
	})
	shippingFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shipping_quote_fallbacks_total",
		Help: "Shipping quotes served from the local rate table.",
	})
	reg.MustRegister(chargeDuration, chargeOutcome, ordersCreated, reconciliationGaps, shippingFallbacks)
	return &CheckoutMetrics{
		chargeDuration:     chargeDuration,
		chargeOutcome:      chargeOutcome,
		ordersCreated:      ordersCreated,
		reconciliationGaps: reconciliationGaps,
		shippingFallbacks:  shippingFallbacks,
	}
}

// ObserveCharge records a charge attempt with its duration and outcome.
func (c *CheckoutMetrics) ObserveCharge(outcome string, duration time.Duration) {
	if c == nil || c.chargeOutcome == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.chargeOutcome.WithLabelValues(label).Inc()
	c.chargeDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncOrderCreated increments the order-created counter.
func (c *CheckoutMetrics) IncOrderCreated() {
	if c == nil || c.ordersCreated == nil {
		return
	}
	c.ordersCreated.Inc()
}

// IncReconciliationGap increments the reconciliation-gap counter.
func (c *CheckoutMetrics) IncReconciliationGap() {
	if c == nil || c.reconciliationGaps == nil {
		return
	}
	c.reconciliationGaps.Inc()
}

// IncShippingFallback increments the shipping fallback counter.
func (c *CheckoutMetrics) IncShippingFallback() {
	if c == nil || c.shippingFallbacks == nil {
		return
	}
	c.shippingFallbacks.Inc()
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
