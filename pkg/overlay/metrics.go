// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

import "github.com/prometheus/client_golang/prometheus"

// Send statuses recorded by Metrics.
const (
	SendDelivered = "delivered"
	SendQueued    = "queued"
	SendDropped   = "dropped"
)

// Metrics holds the client's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	EventsTotal    *prometheus.CounterVec
	SendsTotal     *prometheus.CounterVec
	ParseFailures  prometheus.Counter
	Reconnects     prometheus.Counter
	ListenerPanics *prometheus.CounterVec
	PendingCalls   prometheus.Gauge
	QueueLength    prometheus.Gauge
}

// NewMetrics creates and registers the overlay client metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlay_events_total",
				Help: "Total number of inbound events by type",
			},
			[]string{"type"},
		),
		SendsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlay_sends_total",
				Help: "Total number of outbound requests by handler and status",
			},
			[]string{"call", "status"},
		),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "overlay_parse_failures_total",
			Help: "Total number of inbound messages dropped as invalid JSON",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "overlay_reconnects_total",
			Help: "Total number of WebSocket redial attempts",
		}),
		ListenerPanics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlay_listener_panics_total",
				Help: "Total number of recovered listener panics by event type",
			},
			[]string{"type"},
		),
		PendingCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "overlay_pending_calls",
			Help: "Correlated calls still waiting for a response",
		}),
		QueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "overlay_queue_length",
			Help: "Requests queued until the transport is ready",
		}),
	}

	reg.MustRegister(
		m.EventsTotal,
		m.SendsTotal,
		m.ParseFailures,
		m.Reconnects,
		m.ListenerPanics,
		m.PendingCalls,
		m.QueueLength,
	)
	return m
}

func (m *Metrics) event(t EventType) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) send(call HandlerType, status string) {
	if m == nil {
		return
	}
	m.SendsTotal.WithLabelValues(string(call), status).Inc()
}

func (m *Metrics) parseFailure() {
	if m == nil {
		return
	}
	m.ParseFailures.Inc()
}

func (m *Metrics) reconnect() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}

func (m *Metrics) listenerPanic(t EventType) {
	if m == nil {
		return
	}
	m.ListenerPanics.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) pending(n int) {
	if m == nil {
		return
	}
	m.PendingCalls.Set(float64(n))
}

func (m *Metrics) queued(n int) {
	if m == nil {
		return
	}
	m.QueueLength.Set(float64(n))
}
