// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Conflict reasons.
const (
	ReasonSlotOverlap = "slot_overlap"
	ReasonSlotTaken   = "slot_taken"
	ReasonSlotInUse   = "slot_in_use"
	ReasonClassInUse  = "class_in_use"
)

var (
	// Conflicts counts scheduling requests rejected with a conflict.
	Conflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agenda",
		Subsystem: "scheduling",
		Name:      "conflicts_total",
		Help:      "Scheduling requests rejected because of a conflict, by reason.",
	}, []string{"reason"})

	// BookingTransitions counts evaluation bookings entering each status.
	BookingTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agenda",
		Subsystem: "scheduling",
		Name:      "booking_transitions_total",
		Help:      "Evaluation bookings entering a status.",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(Conflicts, BookingTransitions)
}

// RecordConflict bumps the conflict counter for reason.
func RecordConflict(reason string) {
	Conflicts.WithLabelValues(reason).Inc()
}

// RecordBookingStatus bumps the transition counter for status.
func RecordBookingStatus(status string) {
	BookingTransitions.WithLabelValues(status).Inc()
}
