// Package metrics exposes Prometheus metrics for the editor operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds the editor metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Decode metrics
	messagesDecoded prometheus.Counter
	recordsSkipped  prometheus.Counter
	degradedDecodes prometheus.Counter

	// Operation metrics
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	// Repair metrics
	samplesFiltered    prometheus.Counter
	samplesAdjusted    prometheus.Counter
	summariesBuilt     *prometheus.CounterVec
	unresolvedSessions prometheus.Counter

	storedBytes prometheus.Histogram
}

// New creates the metrics and registers them on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		messagesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitedit_messages_decoded_total",
			Help: "Total number of messages decoded",
		}),
		recordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitedit_records_skipped_total",
			Help: "Total number of corrupt records skipped during decode",
		}),
		degradedDecodes: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitedit_degraded_decodes_total",
			Help: "Total number of files decoded in degraded mode",
		}),

		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fitedit_operations_total",
				Help: "Total number of editor operations",
			},
			[]string{"operation", "status"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fitedit_operation_duration_seconds",
				Help:    "Editor operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		samplesFiltered: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitedit_samples_filtered_total",
			Help: "Total number of samples dropped by repairs",
		}),
		samplesAdjusted: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitedit_samples_distance_adjusted_total",
			Help: "Total number of samples whose cumulative distance was repaired",
		}),
		summariesBuilt: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fitedit_summaries_synthesized_total",
				Help: "Total number of messages synthesized by repairs",
			},
			[]string{"message"},
		),
		unresolvedSessions: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitedit_sessions_unresolved_total",
			Help: "Total number of sessions back-fill could not match to laps",
		}),

		storedBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fitedit_stored_file_bytes",
			Help:    "Size of FIT files written to the store",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
	}
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordOperation records one editor operation
func (m *Metrics) RecordOperation(operation string, success bool, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDecode records the outcome of one decoded file
func (m *Metrics) RecordDecode(messages, skipped int, degraded bool) {
	m.messagesDecoded.Add(float64(messages))
	m.recordsSkipped.Add(float64(skipped))
	if degraded {
		m.degradedDecodes.Inc()
	}
}

// RecordRepair records what a repair did
func (m *Metrics) RecordRepair(filtered, adjusted int, synthesized []string, unresolved int) {
	m.samplesFiltered.Add(float64(filtered))
	m.samplesAdjusted.Add(float64(adjusted))
	for _, name := range synthesized {
		m.summariesBuilt.WithLabelValues(name).Inc()
	}
	m.unresolvedSessions.Add(float64(unresolved))
}

// RecordStored records the size of a file written to the store
func (m *Metrics) RecordStored(size int) {
	m.storedBytes.Observe(float64(size))
}
