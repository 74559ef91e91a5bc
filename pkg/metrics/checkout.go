package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout flow transitions, payment outcomes and cart persistence failures.
type CheckoutMetrics struct {
	transitions     *prometheus.CounterVec
	paymentDuration *prometheus.HistogramVec
	paymentSuccess  *prometheus.CounterVec
	paymentFailure  *prometheus.CounterVec
	persistFailure  *prometheus.CounterVec
	sessions        prometheus.Gauge
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_transitions_total",
		Help: "Checkout state transitions.",
	}, []string{"from", "to"})
	paymentDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_payment_duration_seconds",
		Help:    "Duration of payment submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	paymentSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_success",
		Help: "Accepted payment submissions.",
	}, []string{"method"})
	paymentFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_failure",
		Help: "Rejected or failed payment submissions.",
	}, []string{"method"})
	persistFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_failure",
		Help: "Cart writes that could not be saved and were rolled back.",
	}, []string{"op"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "checkout_resident_sessions",
		Help: "Shopper sessions currently held in memory.",
	})
	reg.MustRegister(transitions, paymentDuration, paymentSuccess, paymentFailure, persistFailure, sessions)
	return &CheckoutMetrics{
		transitions:     transitions,
		paymentDuration: paymentDuration,
		paymentSuccess:  paymentSuccess,
		paymentFailure:  paymentFailure,
		persistFailure:  persistFailure,
		sessions:        sessions,
	}
}

func (c *CheckoutMetrics) IncTransition(from, to string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObservePayment records one payment attempt for the given method.
func (c *CheckoutMetrics) ObservePayment(method string, duration time.Duration, ok bool) {
	if c == nil || c.paymentDuration == nil {
		return
	}
	method = normalizeLabel(method)
	c.paymentDuration.WithLabelValues(method).Observe(duration.Seconds())
	if ok {
		c.paymentSuccess.WithLabelValues(method).Inc()
		return
	}
	c.paymentFailure.WithLabelValues(method).Inc()
}

func (c *CheckoutMetrics) IncPersistFailure(op string) {
	if c == nil || c.persistFailure == nil {
		return
	}
	c.persistFailure.WithLabelValues(normalizeLabel(op)).Inc()
}

func (c *CheckoutMetrics) SetResidentSessions(n int) {
	if c == nil || c.sessions == nil {
		return
	}
	c.sessions.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
