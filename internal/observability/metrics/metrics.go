package metrics

import "github.com/prometheus/client_golang/prometheus"

// CallMetrics exposes counters/histograms for the voice booking flow.
type CallMetrics struct {
	turnsTotal     *prometheus.CounterVec
	callsTotal     *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewCallMetrics(reg prometheus.Registerer) *CallMetrics {
	m := &CallMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medizap",
			Subsystem: "voice",
			Name:      "turns_total",
			Help:      "Total dialogue turns processed",
		}, []string{"step", "action"}),
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medizap",
			Subsystem: "voice",
			Name:      "calls_total",
			Help:      "Total calls by final outcome",
		}, []string{"outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medizap",
			Subsystem: "voice",
			Name:      "bookings_total",
			Help:      "Total booking attempts",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medizap",
			Subsystem: "voice",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of Twilio webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.callsTotal, m.bookingsTotal, m.webhookLatency)
	return m
}

func (m *CallMetrics) ObserveTurn(step, action string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(step, action).Inc()
}

func (m *CallMetrics) ObserveCall(outcome string) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(outcome).Inc()
}

func (m *CallMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *CallMetrics) ObserveWebhookLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(status).Observe(seconds)
}
