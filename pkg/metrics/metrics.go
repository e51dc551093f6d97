package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Hash-data store metrics
	HashDataInsertsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hashdb_hash_data_inserts_total",
			Help: "Total number of insert() calls against the hash-data store",
		},
	)

	HashDataMergesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hashdb_hash_data_merges_total",
			Help: "Total number of merge() calls against the hash-data store",
		},
	)

	HashDataRecordType = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hashdb_hash_data_records",
			Help: "Number of hash-data records by on-disk record type (1, 2)",
		},
		[]string{"record_type"},
	)

	HashDataInsertDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hashdb_hash_data_insert_duration_seconds",
			Help:    "Time taken by a single hash-data insert/merge",
			Buckets: prometheus.DefBuckets,
		},
	)

	HashDataFindDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hashdb_hash_data_find_duration_seconds",
			Help:    "Time taken by a single hash-data find",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Prefilter metrics
	PrefilterInsertsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hashdb_prefilter_inserts_total",
			Help: "Total number of prefilter insert() calls",
		},
	)

	PrefilterQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hashdb_prefilter_queries_total",
			Help: "Total prefilter find() calls by result",
		},
		[]string{"result"}, // hit, miss
	)

	// Bloom filter metrics
	BloomQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hashdb_bloom_queries_total",
			Help: "Total Bloom filter test() calls by result",
		},
		[]string{"result"}, // possible, absent, disabled
	)

	BloomBitsSet = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hashdb_bloom_bits_set",
			Help: "Number of bits currently set in the Bloom filter",
		},
	)

	// Source stores
	SourceIDsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hashdb_source_ids_total",
			Help: "Total number of distinct source ids issued",
		},
	)

	// Import session metrics
	ImportSessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hashdb_import_sessions_total",
			Help: "Total number of import sessions opened",
		},
	)

	ImportSessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hashdb_import_session_duration_seconds",
			Help:    "Duration of an import session from open to close",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 300, 1800, 3600},
		},
	)

	// Scan-stream metrics
	ScanLookupsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hashdb_scan_lookups_total",
			Help: "Total number of block hash lookups performed by scan-stream workers",
		},
	)

	ScanLookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hashdb_scan_lookup_duration_seconds",
			Help:    "Time taken for one find_hash lookup during a scan",
			Buckets: prometheus.DefBuckets,
		},
	)

	ScanBatchesSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hashdb_scan_batches_submitted_total",
			Help: "Total number of lookup batches submitted to the scan-stream scheduler",
		},
	)

	ScanBatchesScanned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hashdb_scan_batches_scanned_total",
			Help: "Total number of lookup batches fully scanned",
		},
	)

	ScanWorkersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hashdb_scan_workers_active",
			Help: "Number of scan-stream worker goroutines currently running",
		},
	)

	// Map growth (spec §5 "Map growth")
	StoreMapGrowthsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hashdb_store_map_growths_total",
			Help: "Total number of times a store's backing mmap was reported as grown",
		},
		[]string{"store"},
	)
)

func init() {
	prometheus.MustRegister(
		HashDataInsertsTotal,
		HashDataMergesTotal,
		HashDataRecordType,
		HashDataInsertDuration,
		HashDataFindDuration,
		PrefilterInsertsTotal,
		PrefilterQueriesTotal,
		BloomQueriesTotal,
		BloomBitsSet,
		SourceIDsTotal,
		ImportSessionsTotal,
		ImportSessionDuration,
		ScanLookupsTotal,
		ScanLookupDuration,
		ScanBatchesSubmitted,
		ScanBatchesScanned,
		ScanWorkersActive,
		StoreMapGrowthsTotal,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
