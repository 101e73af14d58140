package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AnnotationMetrics contains Prometheus metrics for the annotation engine.
// A nil *AnnotationMetrics is valid and records nothing.
type AnnotationMetrics struct {
	registry *prometheus.Registry

	importRowsTotal      *prometheus.CounterVec
	resultsCreatedTotal  *prometheus.CounterVec
	duplicatesTotal      prometheus.Counter
	setForksTotal        *prometheus.CounterVec
	operationDuration    *prometheus.HistogramVec
	operationErrorsTotal *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewAnnotationMetrics creates and registers annotation metrics
func NewAnnotationMetrics(registry *prometheus.Registry) (*AnnotationMetrics, error) {
	m := &AnnotationMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *AnnotationMetrics) initMetrics() {
	m.importRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotation_import_rows_total",
			Help: "Total number of processed import rows by outcome",
		},
		[]string{"outcome"}, // created or a skip reason
	)

	m.resultsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotation_results_created_total",
			Help: "Total number of annotation results created",
		},
		[]string{"source"}, // import, manual
	)

	m.duplicatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "annotation_duplicates_skipped_total",
		Help: "Total number of candidate results skipped because an identical result exists",
	})

	m.setForksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotation_set_forks_total",
			Help: "Total number of shared label or confidence sets forked for one campaign",
		},
		[]string{"kind"},
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "annotation_operation_duration_seconds",
			Help:    "Time taken by annotation operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		},
		[]string{"operation"},
	)

	m.operationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotation_operation_errors_total",
			Help: "Total number of failed annotation operations by error category",
		},
		[]string{"operation", "category"},
	)

	m.collectors = []prometheus.Collector{
		m.importRowsTotal,
		m.resultsCreatedTotal,
		m.duplicatesTotal,
		m.setForksTotal,
		m.operationDuration,
		m.operationErrorsTotal,
	}
}

// Describe implements the Collector interface
func (m *AnnotationMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *AnnotationMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordImportRow records the outcome of one import row
func (m *AnnotationMetrics) RecordImportRow(outcome string) {
	if m == nil {
		return
	}
	m.importRowsTotal.WithLabelValues(outcome).Inc()
}

// RecordResultCreated records a newly persisted result
func (m *AnnotationMetrics) RecordResultCreated(source string) {
	if m == nil {
		return
	}
	m.resultsCreatedTotal.WithLabelValues(source).Inc()
}

// RecordDuplicate records a candidate dropped by deduplication
func (m *AnnotationMetrics) RecordDuplicate() {
	if m == nil {
		return
	}
	m.duplicatesTotal.Inc()
}

// RecordSetFork records a fork of a shared set
func (m *AnnotationMetrics) RecordSetFork(kind string) {
	if m == nil {
		return
	}
	m.setForksTotal.WithLabelValues(kind).Inc()
}

// RecordDuration records the duration of an operation in seconds
func (m *AnnotationMetrics) RecordDuration(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError records a failed operation
func (m *AnnotationMetrics) RecordError(operation, category string) {
	if m == nil {
		return
	}
	m.operationErrorsTotal.WithLabelValues(operation, category).Inc()
}
