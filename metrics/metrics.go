package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SubmissionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hackathon_submissions_created_total", Help: "Submissions created, by lateness"},
		[]string{"late"},
	)
	SubmissionsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hackathon_submission_rejections_total", Help: "Submission create/edit calls refused by the workflow"},
		[]string{"reason"},
	)
	MeetingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackathon_meeting_conflicts_total", Help: "Scheduling requests rejected for overlapping a host booking"},
	)
	NotificationsFannedOut = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackathon_notifications_fanned_out_total", Help: "Notification rows created by announcement fan-out"},
	)
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hackathon_status_transitions_total", Help: "Status changes persisted by the reconciliation job"},
		[]string{"to"},
	)

	ProcessedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackathon_outbox_processed_total", Help: "Total processed outbox events"},
	)
	FailedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackathon_outbox_failed_total", Help: "Total failed outbox events"},
	)
	DLQEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackathon_outbox_dlq_total", Help: "Total events inserted into the delivery failure table"},
	)
)

func Register() {
	prometheus.MustRegister(
		SubmissionsCreated,
		SubmissionsRejected,
		MeetingConflicts,
		NotificationsFannedOut,
		StatusTransitions,
		ProcessedEvents,
		FailedEvents,
		DLQEvents,
	)
}
