// Package metrics provides Prometheus metrics for munging runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocumentsTotal tracks documents by the outcome they reached
	DocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "munger",
			Subsystem: "pipeline",
			Name:      "documents_total",
			Help:      "Total number of documents processed by outcome",
		},
		[]string{"outcome"},
	)

	// StageRejectionsTotal tracks rejections by the stage that rejected
	StageRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "munger",
			Subsystem: "pipeline",
			Name:      "stage_rejections_total",
			Help:      "Total number of documents rejected by each stage",
		},
		[]string{"stage"},
	)

	// WritesTotal tracks rows written per destination
	WritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "munger",
			Subsystem: "writer",
			Name:      "rows_total",
			Help:      "Total number of rows written by destination",
		},
		[]string{"outcome", "destination"},
	)

	// UnclaimedTotal tracks documents no writer admitted
	UnclaimedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "munger",
			Subsystem: "router",
			Name:      "unclaimed_total",
			Help:      "Total number of documents not admitted by any writer",
		},
		[]string{"outcome"},
	)

	// RunDuration tracks full run duration in seconds
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "munger",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of munging runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600},
		},
	)

	// EventsPublished tracks outcome events sent to Kafka
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "munger",
			Subsystem: "kafka",
			Name:      "events_published_total",
			Help:      "Total number of outcome events published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// KafkaPublishDuration tracks Kafka publish latency
	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "munger",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)
)

// RecordDocument records the outcome of one document
func RecordDocument(outcome string) {
	DocumentsTotal.WithLabelValues(outcome).Inc()
}

// RecordRejection records a stage rejection
func RecordRejection(stage string) {
	StageRejectionsTotal.WithLabelValues(stage).Inc()
}

// RecordWrite records a row admitted by a writer
func RecordWrite(outcome, destination string) {
	WritesTotal.WithLabelValues(outcome, destination).Inc()
}

// RecordUnclaimed records a document that no writer admitted
func RecordUnclaimed(outcome string) {
	UnclaimedTotal.WithLabelValues(outcome).Inc()
}

// RecordRun records the duration of a run
func RecordRun(durationSeconds float64) {
	RunDuration.Observe(durationSeconds)
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string, durationSeconds float64) {
	EventsPublished.WithLabelValues(topic, status).Inc()
	KafkaPublishDuration.Observe(durationSeconds)
}

// WriteTextfile dumps the default registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
