package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	admissionsTotal  *prometheus.CounterVec
	writeRacesTotal  prometheus.Counter
	admissionLatency prometheus.Histogram
	webhooksTotal    *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		admissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spa",
			Subsystem: "bookings",
			Name:      "admissions_total",
			Help:      "Booking admission decisions by outcome and reason",
		}, []string{"decision", "reason"}),
		writeRacesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spa",
			Subsystem: "bookings",
			Name:      "write_races_total",
			Help:      "Inserts rejected by the database overlap constraints",
		}),
		admissionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "spa",
			Subsystem: "bookings",
			Name:      "admission_latency_seconds",
			Help:      "Latency of the full book operation including persistence",
			Buckets:   prometheus.DefBuckets,
		}),
		webhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spa",
			Subsystem: "webhooks",
			Name:      "inbound_total",
			Help:      "Inbound payment webhook events by type and status",
		}, []string{"event_type", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.admissionsTotal, m.writeRacesTotal, m.admissionLatency, m.webhooksTotal)
	return m
}

func (m *BookingMetrics) ObserveAdmission(accepted bool, reason string) {
	if m == nil {
		return
	}
	decision := "accepted"
	if !accepted {
		decision = "rejected"
	}
	if reason == "" {
		reason = "none"
	}
	m.admissionsTotal.WithLabelValues(decision, reason).Inc()
}

func (m *BookingMetrics) ObserveWriteRace() {
	if m == nil {
		return
	}
	m.writeRacesTotal.Inc()
}

func (m *BookingMetrics) ObserveBookLatency(seconds float64) {
	if m == nil {
		return
	}
	m.admissionLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveWebhook(eventType, status string) {
	if m == nil {
		return
	}
	m.webhooksTotal.WithLabelValues(eventType, status).Inc()
}
