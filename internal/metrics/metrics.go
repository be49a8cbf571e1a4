package metrics

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Reminder scheduler
	ReminderSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_sent_total",
			Help: "Reminders delivered and recorded, by kind",
		},
		[]string{"kind"},
	)

	ReminderFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_failed_total",
			Help: "Reminder deliveries that failed, by kind",
		},
		[]string{"kind"},
	)

	ReminderPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reminder_pass_duration_seconds",
			Help:    "Duration of one reminder scan",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	ReminderPassCandidates = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reminder_pass_candidates",
			Help: "Upcoming appointments examined by the last reminder scan",
		},
	)

	// Booking
	BookingRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_rejections_total",
			Help: "Booking and reschedule attempts rejected by the validator, by reason",
		},
		[]string{"reason"},
	)

	// Notifications
	NotificationDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_dispatch_dropped_total",
			Help: "Confirmation or cancellation emails dropped because the queue was full",
		},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ReminderSent,
			ReminderFailed,
			ReminderPassDuration,
			ReminderPassCandidates,
			BookingRejections,
			NotificationDropped,
		)
	})
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
