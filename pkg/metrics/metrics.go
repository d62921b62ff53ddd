package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Booking metrics
	BookingsTotal      *prometheus.CounterVec // outcome: won, lost, queue, queue_full
	CancellationsTotal prometheus.Counter
	BookingLatency     prometheus.Histogram

	// Slot generation metrics
	SlotsGenerated prometheus.Counter
	SlotsBlocked   prometheus.Counter
	GenerationRuns prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		BookingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		CancellationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cancellations_total",
			Help:      "Total number of cancelled appointments",
		}),
		BookingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "booking_duration_seconds",
			Help:      "Time spent claiming a slot and creating the appointment",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		SlotsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slots_generated_total",
			Help:      "Total number of slots materialized",
		}),
		SlotsBlocked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slots_blocked_total",
			Help:      "Total number of stale slots blocked during regeneration",
		}),
		GenerationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slot_generations_total",
			Help:      "Total number of slot generation runs",
		}),
	}
}

// Booking outcome labels
const (
	OutcomeWon       = "won"
	OutcomeLost      = "lost"
	OutcomeQueue     = "queue"
	OutcomeQueueFull = "queue_full"
)
