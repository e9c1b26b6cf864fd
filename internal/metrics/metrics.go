// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "campusride"

var (
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "bookings_total", Help: "Booking attempts by outcome"},
		[]string{"outcome"},
	)
	SeatsBooked = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "seats_booked_total", Help: "Seats reserved by confirmed bookings"})
	Cancellations = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "booking_cancellations_total", Help: "Booking cancellations by outcome"},
		[]string{"outcome"},
	)
	RideStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ride_status_changes_total", Help: "Ride status transitions by target status"},
		[]string{"status"},
	)
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "chat_messages_total", Help: "Chat messages stored"})

	OutboxTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "outbox_tasks_total", Help: "Outbox task outcomes"},
		[]string{"kind", "outcome"},
	)
	OutboxLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "outbox_task_duration_seconds",
		Help:      "Time spent dispatching one outbox task",
		Buckets:   prometheus.DefBuckets,
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RegisterWebsocketClients exposes the live connection count reported by fn.
func RegisterWebsocketClients(fn func() int) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{Namespace: namespace, Name: "websocket_clients", Help: "Connected websocket clients"},
		func() float64 { return float64(fn()) },
	)
}

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeRetried  = "retried"
	OutcomeFailed   = "failed"
)
