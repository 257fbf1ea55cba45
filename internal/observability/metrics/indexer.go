package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IndexerMetrics contains Prometheus metrics for filesystem indexing runs
type IndexerMetrics struct {
	runsTotal          *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	filesTotal         *prometheus.CounterVec
	syllablesTotal     prometheus.Counter
	checksumBytesTotal prometheus.Counter

	collectors []prometheus.Collector
}

// NewIndexerMetrics creates and registers new indexer metrics
func NewIndexerMetrics(registry *prometheus.Registry) (*IndexerMetrics, error) {
	m := &IndexerMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *IndexerMetrics) initMetrics() {
	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_indexer_runs_total",
			Help: "Total number of indexing runs by outcome",
		},
		[]string{"status"}, // completed, failed
	)

	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_indexer_stage_duration_seconds",
			Help:    "Time spent in each indexing stage",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12), // 10ms to ~20s
		},
		[]string{"stage"},
	)

	m.filesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_indexer_files_total",
			Help: "Container files processed by outcome",
		},
		[]string{"outcome"}, // indexed, skipped
	)

	m.syllablesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_indexer_syllables_total",
		Help: "Syllable rows inserted by indexing runs",
	})

	m.checksumBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_indexer_checksum_bytes_total",
		Help: "Bytes hashed while computing container checksums",
	})

	m.collectors = []prometheus.Collector{
		m.runsTotal,
		m.stageDuration,
		m.filesTotal,
		m.syllablesTotal,
		m.checksumBytesTotal,
	}
}

// Describe implements the Collector interface
func (m *IndexerMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *IndexerMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordRun records a finished run
func (m *IndexerMetrics) RecordRun(status string) {
	m.runsTotal.WithLabelValues(status).Inc()
}

// RecordStageDuration records how long a stage took
func (m *IndexerMetrics) RecordStageDuration(stage string, duration float64) {
	m.stageDuration.WithLabelValues(stage).Observe(duration)
}

// RecordFiles adds to the indexed or skipped file counter
func (m *IndexerMetrics) RecordFiles(outcome string, count int) {
	m.filesTotal.WithLabelValues(outcome).Add(float64(count))
}

// RecordSyllables adds inserted syllable rows
func (m *IndexerMetrics) RecordSyllables(count int) {
	m.syllablesTotal.Add(float64(count))
}

// RecordChecksumBytes adds hashed bytes
func (m *IndexerMetrics) RecordChecksumBytes(n int64) {
	m.checksumBytesTotal.Add(float64(n))
}
