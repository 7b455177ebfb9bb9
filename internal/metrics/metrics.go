package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scanResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlist_scan_results_total",
			Help: "Scanned codes by validation outcome",
		},
		[]string{"reason"},
	)

	moderations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlist_moderations_total",
			Help: "Moderation decisions by resulting status",
		},
		[]string{"status"},
	)

	registrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guestlist_registrations_total",
			Help: "Accepted registrations",
		},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlist_notifications_total",
			Help: "Admission emails by delivery result",
		},
		[]string{"result"},
	)
)

// Recorder is the metrics sink used by the core.
type Recorder struct{}

func New() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Scan(reason string) {
	scanResults.WithLabelValues(reason).Inc()
}

func (r *Recorder) Moderation(status string) {
	moderations.WithLabelValues(status).Inc()
}

func (r *Recorder) Registration() {
	registrations.Inc()
}

func (r *Recorder) Notification(ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	notifications.WithLabelValues(result).Inc()
}
