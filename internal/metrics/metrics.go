// Package metrics declares the Prometheus collectors exported by the scheduler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meeting_scheduler"

var (
	// CommitOutcomes counts booking commits, reschedules and cancellations by result.
	CommitOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "booking",
		Name:      "operations_total",
		Help:      "The total number of booking operations by outcome",
	}, []string{"operation", "outcome"})

	// LockAttempts counts slot lock acquisitions by result.
	LockAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lock",
		Name:      "acquire_total",
		Help:      "The total number of slot lock acquisition attempts",
	}, []string{"result"})

	// PipelineDuration observes availability computations.
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "availability",
		Name:      "pipeline_duration_seconds",
		Help:      "Time spent computing availability",
		Buckets:   prometheus.DefBuckets,
	})

	// SlotsReturned observes how many slots each computation produced.
	SlotsReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "availability",
		Name:      "slots_returned",
		Help:      "Number of slots returned per availability computation",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	// CompletedBookings counts bookings moved to completed by the sweep job.
	CompletedBookings = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "completed_bookings_total",
		Help:      "The total number of bookings marked completed",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
