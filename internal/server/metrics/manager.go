// Package metrics exposes Prometheus counters and histograms for the
// verification engine and the admin operations around it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "vendorverify"
	subsystem = "service"

	counterVerifications        = "verifications_total"
	counterAnomalies            = "anomalies_total"
	counterHistoryAppendFailed  = "history_append_failures_total"
	counterRotations            = "rotations_total"
	counterEventPublishFailed   = "event_publish_failures_total"
	histogramOperationDurations = "operation_duration_milliseconds"
)

const (
	counterDescriptionVerifications        = "Number of evaluated presentations, by outcome"
	counterDescriptionAnomalies            = "Number of anomaly reasons raised, by reason"
	counterDescriptionHistoryAppendFailed  = "Number of scan history entries that could not be written"
	counterDescriptionRotations            = "Number of token rotations, by result"
	counterDescriptionEventPublishFailed   = "Number of decision and rotation events that could not be published"
	histogramDescriptionOperationDurations = "Histogram/sum/count of operation time, by operation"
)

const (
	outcomeLabel   = "outcome"
	reasonLabel    = "reason"
	resultLabel    = "result"
	operationLabel = "operation"
)

type API interface {
	Verification(outcome string)
	Anomaly(reason string)
	HistoryAppendFailed()
	Rotation(result string)
	EventPublishFailed()
	Duration(operation string, duration time.Duration)
}

type MetricsManager struct {
	verifications       *prometheus.CounterVec
	anomalies           *prometheus.CounterVec
	historyAppendFailed prometheus.Counter
	rotations           *prometheus.CounterVec
	eventPublishFailed  prometheus.Counter
	operationDurations  *prometheus.HistogramVec
}

var _ API = &MetricsManager{}

func NewMetricsManager(registry prometheus.Registerer) *MetricsManager {
	m := &MetricsManager{
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      counterVerifications,
			Help:      counterDescriptionVerifications,
		}, []string{outcomeLabel}),

		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      counterAnomalies,
			Help:      counterDescriptionAnomalies,
		}, []string{reasonLabel}),

		historyAppendFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      counterHistoryAppendFailed,
			Help:      counterDescriptionHistoryAppendFailed,
		}),

		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      counterRotations,
			Help:      counterDescriptionRotations,
		}, []string{resultLabel}),

		eventPublishFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      counterEventPublishFailed,
			Help:      counterDescriptionEventPublishFailed,
		}),

		operationDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      histogramOperationDurations,
			Help:      histogramDescriptionOperationDurations,
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{operationLabel}),
	}

	registry.MustRegister(
		m.verifications,
		m.anomalies,
		m.historyAppendFailed,
		m.rotations,
		m.eventPublishFailed,
		m.operationDurations,
	)
	return m
}

func (m *MetricsManager) Verification(outcome string) {
	m.verifications.WithLabelValues(outcome).Inc()
}

func (m *MetricsManager) Anomaly(reason string) {
	m.anomalies.WithLabelValues(reason).Inc()
}

func (m *MetricsManager) HistoryAppendFailed() {
	m.historyAppendFailed.Inc()
}

func (m *MetricsManager) Rotation(result string) {
	m.rotations.WithLabelValues(result).Inc()
}

func (m *MetricsManager) EventPublishFailed() {
	m.eventPublishFailed.Inc()
}

func (m *MetricsManager) Duration(operation string, duration time.Duration) {
	m.operationDurations.WithLabelValues(operation).Observe(float64(duration.Milliseconds()))
}

// Nop discards everything; handy in tests.
type Nop struct{}

func (Nop) Verification(string)            {}
func (Nop) Anomaly(string)                 {}
func (Nop) HistoryAppendFailed()           {}
func (Nop) Rotation(string)                {}
func (Nop) EventPublishFailed()            {}
func (Nop) Duration(string, time.Duration) {}
