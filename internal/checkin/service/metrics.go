package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's prometheus collectors. A nil *Metrics is valid
// and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	KeyRotations     prometheus.Counter
	SessionOutcomes  *prometheus.CounterVec
	AttendanceEvents *prometheus.CounterVec
	BoundDevices     prometheus.Gauge
	ReportsWritten   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		KeyRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "checkin",
			Name:      "key_rotations_total",
			Help:      "Number of rotating keys issued.",
		}),
		SessionOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkin",
			Name:      "session_requests_total",
			Help:      "Login and logout requests by outcome.",
		}, []string{"operation", "outcome"}),
		AttendanceEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkin",
			Name:      "attendance_events_total",
			Help:      "Check-in and check-out requests by outcome.",
		}, []string{"operation", "outcome"}),
		BoundDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "checkin",
			Name:      "bound_devices",
			Help:      "Number of identity to device bindings currently held.",
		}),
		ReportsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkin",
			Name:      "weekly_reports_total",
			Help:      "Weekly report runs by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.KeyRotations, m.SessionOutcomes, m.AttendanceEvents, m.BoundDevices, m.ReportsWritten)
	}
	return m
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return KindOf(err).String()
}

func (m *Metrics) keyRotated() {
	if m == nil {
		return
	}
	m.KeyRotations.Inc()
}

func (m *Metrics) session(op string, err error) {
	if m == nil {
		return
	}
	m.SessionOutcomes.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) attendance(op string, err error) {
	if m == nil {
		return
	}
	m.AttendanceEvents.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) boundDevices(n int) {
	if m == nil {
		return
	}
	m.BoundDevices.Set(float64(n))
}

func (m *Metrics) report(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ReportsWritten.WithLabelValues("error").Inc()
		return
	}
	m.ReportsWritten.WithLabelValues("success").Inc()
}
