// Package metrics exposes Prometheus instruments for the composer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecipientsExtracted counts raw candidates produced per source.
	RecipientsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emailshooter_recipients_extracted_total",
			Help: "Raw recipient candidates produced by the extractors",
		},
		[]string{"source"}, // source: text, csv, spreadsheet
	)

	// FileDecodeFailures counts recipient files that could not be decoded.
	FileDecodeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emailshooter_file_decode_failures_total",
			Help: "Recipient files rejected because they could not be decoded",
		},
		[]string{"kind"},
	)

	// StaleFileReads counts decode results discarded because a newer file
	// was selected while they were running.
	StaleFileReads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "emailshooter_stale_file_reads_total",
			Help: "File decode results discarded because they were superseded",
		},
	)

	// Submissions counts submission attempts by outcome.
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emailshooter_submissions_total",
			Help: "Campaign submissions handed to the sending service",
		},
		[]string{"status"}, // status: accepted, rejected, failed
	)

	// GateRejections counts drafts refused before any network call.
	GateRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emailshooter_gate_rejections_total",
			Help: "Drafts refused by the submission gate",
		},
		[]string{"code"},
	)

	// SubmissionRecipients tracks recipient set sizes at submission.
	SubmissionRecipients = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "emailshooter_submission_recipients",
			Help:    "Unique recipients per submitted campaign",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 750, 1000},
		},
	)

	// SubmissionDuration tracks sending service latency in seconds.
	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emailshooter_submission_duration_seconds",
			Help:    "Sending service call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"status"},
	)

	// ActiveDrafts is the number of live composer sessions.
	ActiveDrafts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "emailshooter_active_drafts",
			Help: "Composer sessions currently held in memory",
		},
	)
)

// RecordExtracted adds n candidates for source.
func RecordExtracted(source string, n int) {
	RecipientsExtracted.WithLabelValues(source).Add(float64(n))
}

// RecordDecodeFailure counts one failed file of the given kind.
func RecordDecodeFailure(kind string) {
	FileDecodeFailures.WithLabelValues(kind).Inc()
}

// RecordGateRejection counts one draft refused with code.
func RecordGateRejection(code string) {
	GateRejections.WithLabelValues(code).Inc()
}

// ObserveSubmission records one call to the sending service.
func ObserveSubmission(status string, recipients int, d time.Duration) {
	Submissions.WithLabelValues(status).Inc()
	SubmissionRecipients.Observe(float64(recipients))
	SubmissionDuration.WithLabelValues(status).Observe(d.Seconds())
}
