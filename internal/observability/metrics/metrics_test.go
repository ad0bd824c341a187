package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveAdmission(true, "")
	m.ObserveAdmission(false, "room")
	m.ObserveWriteRace()
	m.ObserveBookLatency(0.02)
	m.ObserveWebhook("payment.succeeded", "ok")
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveAdmission(true, "")
	m.ObserveWriteRace()
	m.ObserveBookLatency(0.1)
	m.ObserveWebhook("payment.failed", "error")
}
