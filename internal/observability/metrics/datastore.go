package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for database transactions and
// the connection pool.
type DatastoreMetrics struct {
	registry *prometheus.Registry

	transactionsTotal   *prometheus.CounterVec
	transactionDuration prometheus.Histogram

	connectionsOpen  prometheus.Gauge
	connectionsInUse prometheus.Gauge
	connectionsIdle  prometheus.Gauge
	waitCount        prometheus.Gauge

	collectors []prometheus.Collector
}

// NewDatastoreMetrics creates and registers datastore metrics
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() {
	m.transactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_db_transactions_total",
			Help: "Total number of database transactions",
		},
		[]string{"status"}, // committed, rollback
	)

	m.transactionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "datastore_db_transaction_duration_seconds",
		Help:    "Time taken for database transactions",
		Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
	})

	m.connectionsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_db_connections_open",
		Help: "Number of open database connections",
	})
	m.connectionsInUse = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_db_connections_in_use",
		Help: "Number of database connections in use",
	})
	m.connectionsIdle = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_db_connections_idle",
		Help: "Number of idle database connections",
	})
	m.waitCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_db_connection_waits",
		Help: "Total number of connections waited for",
	})

	m.collectors = []prometheus.Collector{
		m.transactionsTotal,
		m.transactionDuration,
		m.connectionsOpen,
		m.connectionsInUse,
		m.connectionsIdle,
		m.waitCount,
	}
}

// Describe implements the Collector interface
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordTransaction records a finished transaction
func (m *DatastoreMetrics) RecordTransaction(status string, seconds float64) {
	if m == nil {
		return
	}
	m.transactionsTotal.WithLabelValues(status).Inc()
	m.transactionDuration.Observe(seconds)
}

// UpdateConnectionStats copies pool statistics into the connection gauges
func (m *DatastoreMetrics) UpdateConnectionStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.connectionsOpen.Set(float64(stats.OpenConnections))
	m.connectionsInUse.Set(float64(stats.InUse))
	m.connectionsIdle.Set(float64(stats.Idle))
	m.waitCount.Set(float64(stats.WaitCount))
}
